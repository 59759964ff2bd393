package store

import (
	"context"

	"blakwhyte-backend/models"

	"github.com/google/uuid"
)

// ListServices returns every non-deleted service, active or not.
func (s *Store) ListServices(ctx context.Context) ([]models.Service, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var services []models.Service
	if err := db.Order("category, name").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (s *Store) ActiveServices(ctx context.Context) ([]models.Service, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var services []models.Service
	if err := db.Where("is_active = ?", true).Order("category, name").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (s *Store) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var svc models.Service
	if err := db.First(&svc, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &svc, nil
}

// SaveService creates svc when it has no id and replaces it otherwise.
func (s *Store) SaveService(ctx context.Context, svc *models.Service) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if svc.ID == uuid.Nil {
		active := svc.IsActive
		err = db.Create(svc).Error
		// the column default would otherwise turn false into true
		if err == nil && !active {
			svc.IsActive = false
			err = db.Model(svc).Update("is_active", false).Error
		}
	} else {
		err = db.Save(svc).Error
	}
	if err != nil {
		return err
	}
	s.notify(Services)
	return nil
}

// DeleteService soft-deletes a service. Bookings keep their reference and
// render it as unknown.
func (s *Store) DeleteService(ctx context.Context, id uuid.UUID) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&models.Service{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(Services)
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := db.Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) ListGallery(ctx context.Context) ([]models.GalleryImage, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var images []models.GalleryImage
	if err := db.Order("created_at").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}
