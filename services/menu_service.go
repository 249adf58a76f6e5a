package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItemInput carries menu item fields. On update, nil fields are left as is.
type MenuItemInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Available   *bool
}

// MenuService manages the menu and its photos.
type MenuService struct {
	db     *gorm.DB
	photos PhotoStore
	Now    func() time.Time
}

// NewMenuService creates a menu service. photos may be nil, in which case
// photo upload is rejected and no image URLs are produced.
func NewMenuService(db *gorm.DB, photos PhotoStore) *MenuService {
	return &MenuService{db: db, photos: photos, Now: systemClock}
}

// List returns menu items by category and name. Waiters only see available
// items; admins see everything unless availableOnly is set.
func (s *MenuService) List(ctx context.Context, id Identity, availableOnly bool) ([]models.MenuItem, error) {
	if err := id.Require(models.RoleAdmin, models.RoleWaiter, models.RoleKitchen); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Order("category asc, name asc")
	if availableOnly || id.Role != models.RoleAdmin {
		query = query.Where("available = ?", true)
	}
	var items []models.MenuItem
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	for i := range items {
		s.attachURL(ctx, &items[i])
	}
	return items, nil
}

// Get returns one menu item.
func (s *MenuService) Get(ctx context.Context, id Identity, itemID string) (*models.MenuItem, error) {
	if err := id.Require(models.RoleAdmin, models.RoleWaiter, models.RoleKitchen); err != nil {
		return nil, err
	}
	item, err := s.find(s.db.WithContext(ctx), itemID)
	if err != nil {
		return nil, err
	}
	s.attachURL(ctx, item)
	return item, nil
}

// Create adds a menu item. Name, category and a positive price are required.
func (s *MenuService) Create(ctx context.Context, id Identity, in MenuItemInput) (*models.MenuItem, error) {
	if err := id.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Name == nil || in.Category == nil || in.Price == nil {
		return nil, Errorf(ErrInvalidInput, "name, category and price are required")
	}
	item := models.MenuItem{Available: true}
	if err := applyMenuInput(&item, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	slog.Info("Menu item created", "menu_item_id", item.ID, "name", item.Name, "price", item.Price.StringFixed(2))
	return &item, nil
}

// Update changes menu item fields. Existing orders keep their price snapshot.
func (s *MenuService) Update(ctx context.Context, id Identity, itemID string, in MenuItemInput) (*models.MenuItem, error) {
	if err := id.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	var item *models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if item, err = s.find(tx, itemID); err != nil {
			return err
		}
		if err := applyMenuInput(item, in); err != nil {
			return err
		}
		return tx.Model(item).Select("name", "description", "category", "price", "available").Updates(item).Error
	})
	if err != nil {
		return nil, wrapStoreError("update menu item", err)
	}
	s.attachURL(ctx, item)
	return item, nil
}

// Delete soft-deletes a menu item; past orders still resolve its name.
func (s *MenuService) Delete(ctx context.Context, id Identity, itemID string) error {
	if err := id.Require(models.RoleAdmin); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.MenuItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete menu item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMenuItemNotFound
	}
	slog.Info("Menu item deleted", "menu_item_id", itemID)
	return nil
}

// AttachPhoto validates and stores a photo for the item, replacing any
// previous one.
func (s *MenuService) AttachPhoto(ctx context.Context, id Identity, itemID string, fileHeader *multipart.FileHeader) (*models.MenuItem, error) {
	if err := id.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if s.photos == nil {
		return nil, Errorf(ErrInvalidInput, "Photo storage is not configured")
	}
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	item, err := s.find(db, itemID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("menu-items/%s-%d%s", item.ID, s.Now().Unix(), strings.ToLower(filepath.Ext(fileHeader.Filename)))
	if err := s.photos.Save(ctx, key, fileHeader); err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}
	previous := item.ImageS3Key
	if err := db.Model(item).Update("image_s3_key", key).Error; err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	item.ImageS3Key = &key
	if previous != nil && *previous != key {
		if err := s.photos.Delete(ctx, *previous); err != nil {
			slog.Warn("Failed to delete previous menu photo", "key", *previous, "error", err)
		}
	}

	slog.Info("Menu photo stored", "menu_item_id", item.ID, "key", key)
	s.attachURL(ctx, item)
	return item, nil
}

func (s *MenuService) find(db *gorm.DB, itemID string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := db.Where("id = ?", itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to load menu item: %w", err)
	}
	return &item, nil
}

func (s *MenuService) attachURL(ctx context.Context, item *models.MenuItem) {
	if s.photos == nil || item.ImageS3Key == nil {
		return
	}
	url, err := s.photos.URL(ctx, *item.ImageS3Key)
	if err != nil {
		slog.Warn("Failed to build menu photo URL", "menu_item_id", item.ID, "error", err)
		return
	}
	item.ImageURL = &url
}

func applyMenuInput(item *models.MenuItem, in MenuItemInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Errorf(ErrInvalidInput, "Name cannot be empty")
		}
		item.Name = name
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return Errorf(ErrInvalidInput, "Category cannot be empty")
		}
		item.Category = category
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return Errorf(ErrInvalidInput, "Price must be greater than zero")
		}
		item.Price = in.Price.Round(2)
	}
	if in.Description != nil {
		if desc := strings.TrimSpace(*in.Description); desc != "" {
			item.Description = &desc
		} else {
			item.Description = nil
		}
	}
	if in.Available != nil {
		item.Available = *in.Available
	}
	return nil
}
