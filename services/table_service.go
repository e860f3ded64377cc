package services

import (
	"context"
	"fmt"

	"qrmenu-api/apperr"
	"qrmenu-api/models"

	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

const qrSize = 256

// QRGenerator renders a payload as an image.
type QRGenerator interface {
	PNG(content string) ([]byte, error)
}

// PNGGenerator encodes with medium error correction.
type PNGGenerator struct {
	Size int
}

func (g PNGGenerator) PNG(content string) ([]byte, error) {
	size := g.Size
	if size == 0 {
		size = qrSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

// QRImage is a rendered table code ready to be served as a download.
type QRImage struct {
	Filename string
	URL      string
	PNG      []byte
}

type TableService struct {
	DB          *gorm.DB
	Restaurants *RestaurantService
	QR          QRGenerator
}

func NewTableService(db *gorm.DB, restaurants *RestaurantService, qr QRGenerator) *TableService {
	if qr == nil {
		qr = PNGGenerator{Size: qrSize}
	}
	return &TableService{DB: db, Restaurants: restaurants, QR: qr}
}

func (s *TableService) CreateTable(ctx context.Context, restaurantID uint, number int) (*models.Table, error) {
	if number <= 0 {
		return nil, apperr.ValidationField("number", "table number must be greater than zero")
	}
	table := models.Table{RestaurantID: restaurantID, Number: number}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		err := tx.Model(&models.Table{}).
			Where("restaurant_id = ? AND number = ?", restaurantID, number).
			Count(&taken).Error
		if err != nil {
			return apperr.Internal("check table", err)
		}
		if taken > 0 {
			return apperr.Conflict("table %d already exists", number)
		}
		if err := tx.Create(&table).Error; err != nil {
			return apperr.Internal("create table", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "create table")
	}
	return &table, nil
}

func (s *TableService) ListTables(ctx context.Context, restaurantID uint) ([]models.Table, error) {
	var tables []models.Table
	if err := s.DB.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("number").Find(&tables).Error; err != nil {
		return nil, apperr.Internal("list tables", err)
	}
	return tables, nil
}

// TableURL is the menu address encoded in the QR code of one table.
func (s *TableService) TableURL(r *models.Restaurant, number int) string {
	return fmt.Sprintf("%s?table=%d", s.Restaurants.MenuURL(r), number)
}

// QRCode renders the code printed on the given table.
func (s *TableService) QRCode(ctx context.Context, restaurant *models.Restaurant, number int) (*QRImage, error) {
	var table models.Table
	err := s.DB.WithContext(ctx).
		Where("restaurant_id = ? AND number = ?", restaurant.ID, number).
		First(&table).Error
	if err != nil {
		return nil, notFoundOr(err, "table", "load table")
	}

	url := s.TableURL(restaurant, table.Number)
	png, err := s.QR.PNG(url)
	if err != nil {
		return nil, apperr.Internal("render qr code", err)
	}
	return &QRImage{
		Filename: fmt.Sprintf("table_%d_qrcode.png", table.Number),
		URL:      url,
		PNG:      png,
	}, nil
}
