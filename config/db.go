package config

import (
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"society-backend/models"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "society_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

// AutoMigrate runs migrations in parent->child order on the given DB.
// Split out so tests can run it against an in-memory database.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Apartment{},
		&models.Checkpoint{},
		&models.Flat{},
		&models.Client{},
		&models.ClientFlat{},
		&models.Guard{},
		&models.Guest{},
		&models.Delivery{},
		&models.Ride{},
		&models.ServiceProvider{},
		&models.ClientStaff{},
		&models.ClientStaffFlat{},
		&models.Vehicle{},
		&models.AdminService{},
		&models.EntryEvent{},
		&models.EntryEventFlat{},
		&models.ApprovalRequest{},
		&models.ParcelRecord{},
	)
}

// SeedDatabase creates a default apartment, gate and guard account on an
// empty database so a fresh deployment is usable immediately.
func SeedDatabase() {
	var aptCount int64
	DB.Model(&models.Apartment{}).Count(&aptCount)
	if aptCount == 0 {
		apt := models.Apartment{Name: envOrDefault("SEED_APARTMENT_NAME", "Default Society")}
		if err := DB.Create(&apt).Error; err != nil {
			slog.Warn("failed to seed apartment", "error", err)
			return
		}

		gate := models.Checkpoint{ApartmentID: apt.ID, Name: "Main Gate", GateNumber: "1"}
		if err := DB.Create(&gate).Error; err != nil {
			slog.Warn("failed to seed checkpoint", "error", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(envOrDefault("SEED_GUARD_PASSWORD", "guard123")), bcrypt.DefaultCost)
		if err != nil {
			slog.Warn("failed to hash seed guard password", "error", err)
			return
		}
		gateID := gate.ID
		guard := models.Guard{
			ApartmentID:  apt.ID,
			FullName:     "Gate Guard",
			Username:     "guard@society.local",
			Password:     string(hash),
			CheckpointID: &gateID,
		}
		if err := DB.Create(&guard).Error; err != nil {
			slog.Warn("failed to seed guard", "error", err)
		} else {
			slog.Info("default apartment, gate and guard seeded")
		}
	}
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return err
	}

	DB = db

	if err := AutoMigrate(DB); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}
