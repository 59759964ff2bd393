package store

import (
	"context"
	"fmt"

	"blakwhyte-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var seedServices = []models.Service{
	{Name: "Luxury Manicure", Description: "A comprehensive treatment including nail shaping, cuticle care, a relaxing hand massage, and a polish of your choice.", Price: decimal.NewFromInt(50), Duration: 60, Category: "Nails", ImageID: "service_manicure", IsActive: true},
	{Name: "Signature Pedicure", Description: "Relax and rejuvenate with our signature pedicure, featuring a warm soak, exfoliation, massage, and perfect polish.", Price: decimal.NewFromInt(75), Duration: 75, Category: "Nails", ImageID: "service_pedicure", IsActive: true},
	{Name: "Deep Cleansing Facial", Description: "A purifying facial treatment that cleanses pores, exfoliates dead skin cells, and treats common skin concerns.", Price: decimal.NewFromInt(120), Duration: 90, Category: "Skincare", ImageID: "service_facial", IsActive: true},
	{Name: "Balayage & Style", Description: "Achieve a natural, sun-kissed look with our expert balayage technique, finished with a professional styling.", Price: decimal.NewFromInt(250), Duration: 180, Category: "Hair", ImageID: "service_hair", IsActive: true},
	{Name: "Professional Makeup", Description: "Perfect for special occasions, our professional makeup artists will create a stunning look tailored to you.", Price: decimal.NewFromInt(100), Duration: 60, Category: "Makeup", ImageID: "service_makeup", IsActive: true},
	{Name: "Relaxation Massage", Description: "Unwind with a full-body massage designed to soothe muscles, improve circulation, and promote deep relaxation.", Price: decimal.NewFromInt(110), Duration: 60, Category: "Wellness", ImageID: "service_massage", IsActive: true},
}

var seedProducts = []models.Product{
	{Name: "Hydrating Face Cream", Description: "A rich, nourishing cream that provides long-lasting hydration and leaves skin feeling soft and supple.", Price: decimal.NewFromInt(45), ImageID: "product_cream"},
	{Name: "Vitamin C Serum", Description: "Brighten and even out your skin tone with this powerful antioxidant serum, protecting against environmental damage.", Price: decimal.NewFromInt(60), ImageID: "product_serum"},
	{Name: "Nourishing Hair Oil", Description: "A lightweight yet deeply conditioning oil to tame frizz, add shine, and protect hair from heat damage.", Price: decimal.NewFromInt(35), ImageID: "product_oil"},
	{Name: "Cuticle Care Pen", Description: "An easy-to-use pen that nourishes and moisturizes cuticles, promoting healthy nail growth.", Price: decimal.NewFromInt(20), ImageID: "product_cuticle"},
}

// Seed fills an empty catalogue with the studio's standard services,
// products and gallery. It does nothing when any service exists.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	if err := db.Unscoped().Model(&models.Service{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		services := make([]models.Service, len(seedServices))
		copy(services, seedServices)
		if err := tx.Create(&services).Error; err != nil {
			return fmt.Errorf("seed services: %w", err)
		}
		products := make([]models.Product, len(seedProducts))
		copy(products, seedProducts)
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		var images []models.GalleryImage
		for i := 1; i <= 8; i++ {
			images = append(images, models.GalleryImage{ImageID: fmt.Sprintf("gallery_%d_img", i)})
		}
		if err := tx.Create(&images).Error; err != nil {
			return fmt.Errorf("seed gallery: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	s.notify(Services, Products, Gallery)
	return true, nil
}
