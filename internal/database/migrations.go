package database

import (
	"errors"
	"time"

	"github.com/AuroraCommerceLab/boutique/backend/internal/catalog"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationSeedCatalogProducts = "2026-06-12_seed_catalog_products"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationSeedCatalogProducts, apply: seedCatalogProducts},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// starterProducts is the catalog the service originally shipped with.
var starterProducts = []catalog.Product{
	{
		ID:          "1",
		Name:        "Rose Gold Samantha Pendant Necklace",
		Price:       89.99,
		Rating:      5,
		Category:    "Jewelry",
		AgeRange:    "All Ages",
		Description: "Elegant rose gold pendant on a fine chain, finished with a polished teardrop charm.",
		Material:    "Rose Gold",
		InStock:     true,
		Image:       "https://images.unsplash.com/photo-1599643478518-a784e5dc4c8f?w=500&h=500&fit=crop",
	},
	{
		ID:          "2",
		Name:        "Radiance Katrina Glow Serum",
		Price:       45.00,
		Rating:      4,
		Category:    "Beauty",
		AgeRange:    "All Ages",
		Description: "Luxurious serum that restores natural skin glow with a lightweight organic formula.",
		Material:    "Organic",
		InStock:     true,
		Image:       "https://images.unsplash.com/photo-1620916566398-39f1143ab7be?w=500&h=500&fit=crop",
	},
	{
		ID:          "3",
		Name:        "Diamond Samyuktha Stud Earrings",
		Price:       199.99,
		Rating:      5,
		Category:    "Jewelry",
		AgeRange:    "All Ages",
		Description: "Classic diamond studs set in white gold, a timeless everyday pair.",
		Material:    "White Gold",
		InStock:     true,
		Image:       "https://images.unsplash.com/photo-1535632066927-ab7c9ab60908?w=500&h=500&fit=crop",
	},
	{
		ID:          "4",
		Name:        "Velvet Matte Lipstick",
		Price:       28.00,
		Rating:      5,
		Category:    "Beauty",
		AgeRange:    "Teen/Young Adult",
		Description: "Long-lasting matte lipstick with a velvet finish in a vegan formula.",
		Material:    "Vegan",
		InStock:     true,
		Image:       "https://images.unsplash.com/photo-1586495777744-4413f21062fa?w=500&h=500&fit=crop",
	},
}

// seedCatalogProducts inserts the starter catalog into an empty products table.
func seedCatalogProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&catalog.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(&starterProducts).Error
}
