package database

import (
	"errors"
	"log"

	"milkeyway/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs auto-migration and seeds baseline rows. Shared by the server
// and the in-memory test databases.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.UserVerification{},
		&model.RefreshToken{},
		&model.FarmerProfile{},
		&model.FarmerDocs{},
		&model.ConsumerProfile{},
		&model.AdminAction{},
		&model.FarmerRequest{},
		&model.Connection{},
		&model.ProductCategory{},
		&model.Product{},
		&model.PlatformSetting{},
	)
	if err != nil {
		return err
	}

	seedCategories(db)
	seedSettings(db)
	return nil
}

func seedCategories(db *gorm.DB) {
	names := []string{"Milk", "Curd", "Butter", "Ghee", "Cheese", "Paneer"}
	for _, name := range names {
		var c model.ProductCategory
		if err := db.Where("name = ?", name).FirstOrCreate(&c, model.ProductCategory{Name: name}).Error; err != nil {
			log.Println("WARNING: Failed to seed category", name, ":", err)
		}
	}
}

// EnsureSuperAdmin creates the back-office account if it does not exist yet.
// Called at startup with credentials from the environment.
func EnsureSuperAdmin(db *gorm.DB, name, email, phone, password string) error {
	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Name:       name,
		Email:      email,
		Phone:      phone,
		Password:   string(hashed),
		Role:       model.RoleSuperAdmin,
		Status:     model.UserStatusActive,
		IsVerified: true,
	}
	return db.Create(&admin).Error
}

func seedSettings(db *gorm.DB) {
	defaults := map[string]string{
		model.SettingDefaultSearchRadiusKm: "25",
		model.SettingMaxDeliveryRadiusKm:   "100",
		model.SettingSupportEmail:          "support@milkeyway.local",
	}
	for key, value := range defaults {
		var s model.PlatformSetting
		if err := db.Where("key = ?", key).FirstOrCreate(&s, model.PlatformSetting{Key: key, Value: value}).Error; err != nil {
			log.Println("WARNING: Failed to seed setting", key, ":", err)
		}
	}
}
