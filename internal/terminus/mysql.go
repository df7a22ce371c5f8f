package terminus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"confnode/internal/domain"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NodeRecord is a row of the node inventory table
type NodeRecord struct {
	Name        string `gorm:"primaryKey;size:255"`
	Environment string `gorm:"size:255"`
	Classes     string `gorm:"type:text"` // JSON list
	Parameters  string `gorm:"type:text"` // JSON object
	IPAddress   string `gorm:"size:64"`
	UpdatedAt   time.Time
}

// TableName pins the inventory table name
func (NodeRecord) TableName() string {
	return "node_records"
}

// MySQL reads node records from an inventory database
type MySQL struct {
	db   *gorm.DB
	deps domain.Deps
}

// NewMySQL connects to dsn and migrates the inventory table
func NewMySQL(dsn string, deps domain.Deps) (*MySQL, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open inventory database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)

	return NewGorm(db, deps)
}

// NewGorm wraps an existing connection
func NewGorm(db *gorm.DB, deps domain.Deps) (*MySQL, error) {
	if err := db.AutoMigrate(&NodeRecord{}); err != nil {
		return nil, fmt.Errorf("migrate node_records: %w", err)
	}
	return &MySQL{db: db, deps: deps}, nil
}

// Name returns the terminus identifier
func (m *MySQL) Name() string {
	return "mysql"
}

// Find reads the inventory row for req.Name
func (m *MySQL) Find(ctx context.Context, req Request) (*domain.Node, error) {
	var rec NodeRecord
	err := m.db.WithContext(ctx).Where("name = ?", req.Name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query node_records: %w", err)
	}

	data, err := rec.toData()
	if err != nil {
		return nil, fmt.Errorf("node record %s: %w", req.Name, err)
	}
	return fromRecord(req, data, m.Name(), m.deps)
}

// Save upserts node into the inventory
func (m *MySQL) Save(ctx context.Context, node *domain.Node) error {
	rec, err := recordFromNode(node)
	if err != nil {
		return err
	}
	return m.db.WithContext(ctx).Save(&rec).Error
}

// Close closes the database connection
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toData converts a row into the data hash shape
func (r NodeRecord) toData() (map[string]any, error) {
	data := map[string]any{"name": r.Name}
	if r.Environment != "" {
		data["environment"] = r.Environment
	}
	if r.IPAddress != "" {
		data["ipaddress"] = r.IPAddress
	}
	if r.Classes != "" {
		var classes []string
		if err := json.Unmarshal([]byte(r.Classes), &classes); err != nil {
			return nil, fmt.Errorf("classes: %w", err)
		}
		data["classes"] = classes
	}
	if r.Parameters != "" {
		var params map[string]any
		if err := json.Unmarshal([]byte(r.Parameters), &params); err != nil {
			return nil, fmt.Errorf("parameters: %w", err)
		}
		data["parameters"] = params
	}
	return data, nil
}

func recordFromNode(node *domain.Node) (NodeRecord, error) {
	rec := NodeRecord{
		Name:        node.Name(),
		Environment: node.EnvironmentName(),
		IPAddress:   node.IPAddress,
	}
	if classes := node.Classes(); len(classes) > 0 {
		b, err := json.Marshal(classes)
		if err != nil {
			return rec, err
		}
		rec.Classes = string(b)
	}
	if params := node.Parameters(); len(params) > 0 {
		b, err := json.Marshal(params)
		if err != nil {
			return rec, err
		}
		rec.Parameters = string(b)
	}
	return rec, nil
}
