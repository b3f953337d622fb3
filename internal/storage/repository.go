// Package storage saves and loads named scenes in SQLite through GORM.
package storage

import (
	"context"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/scene"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrSceneNotFound = errors.New("scene not found")
	ErrInvalidName   = errors.New("invalid scene name")
)

const maxNameLength = 128

type Config struct {
	// Path is the database file. Empty means a private in-memory database.
	Path string `mapstructure:"path" yaml:"path"`
}

type Repository struct {
	db     *gorm.DB
	logger log.Log
}

func Open(cfg Config, l log.Log) (*Repository, error) {
	if l == nil {
		l = log.NewNop()
	}
	l = l.With(log.String("component", "storage"))

	dsn := cfg.Path
	if dsn == "" {
		dsn = "file:arview-" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql db")
	}
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err = db.AutoMigrate(&SceneRecord{}, &ObjectRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	if cfg.Path == "" {
		l.Info("using in-memory scene database")
	} else {
		l.Info("using scene database", log.String("path", cfg.Path))
	}
	return &Repository{db: db, logger: l}, nil
}

func validateName(name string) error {
	if name == "" || len(name) > maxNameLength {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

// Save stores objects under name, replacing any scene with that name.
func (r *Repository) Save(ctx context.Context, name string, objects []scene.PlacedObject) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := SceneRecord{Name: name}
		if err := tx.Where(SceneRecord{Name: name}).FirstOrCreate(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("scene_id = ?", rec.ID).Delete(&ObjectRecord{}).Error; err != nil {
			return err
		}
		if len(objects) > 0 {
			records := make([]ObjectRecord, 0, len(objects))
			for i, obj := range objects {
				or := toRecord(i, obj)
				or.SceneID = rec.ID
				records = append(records, or)
			}
			if err := tx.Create(&records).Error; err != nil {
				return err
			}
		}
		// touch UpdatedAt on replace
		return tx.Save(&rec).Error
	})
	if err != nil {
		return errors.Wrapf(err, "save scene %q", name)
	}
	r.logger.Info("scene saved", log.String("scene", name), log.Int("objects", len(objects)))
	return nil
}

// Load returns the objects of scene name in their saved order.
func (r *Repository) Load(ctx context.Context, name string) ([]scene.PlacedObject, error) {
	var rec SceneRecord
	err := r.db.WithContext(ctx).
		Preload("Objects", func(db *gorm.DB) *gorm.DB { return db.Order("ordinal") }).
		Where(SceneRecord{Name: name}).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrSceneNotFound, "%q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load scene %q", name)
	}

	out := make([]scene.PlacedObject, 0, len(rec.Objects))
	for _, o := range rec.Objects {
		out = append(out, o.toObject())
	}
	return out, nil
}

// List returns every saved scene ordered by name.
func (r *Repository) List(ctx context.Context) ([]SceneInfo, error) {
	db := r.db.WithContext(ctx)

	var scenes []SceneRecord
	if err := db.Order("name").Find(&scenes).Error; err != nil {
		return nil, errors.Wrap(err, "list scenes")
	}

	var counts []struct {
		SceneID uint
		N       int
	}
	err := db.Model(&ObjectRecord{}).
		Select("scene_id, COUNT(*) AS n").
		Group("scene_id").
		Scan(&counts).Error
	if err != nil {
		return nil, errors.Wrap(err, "count scene objects")
	}
	byScene := make(map[uint]int, len(counts))
	for _, c := range counts {
		byScene[c.SceneID] = c.N
	}

	out := make([]SceneInfo, 0, len(scenes))
	for _, s := range scenes {
		out = append(out, SceneInfo{Name: s.Name, Objects: byScene[s.ID], UpdatedAt: s.UpdatedAt})
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec SceneRecord
		if err := tx.Where(SceneRecord{Name: name}).First(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("scene_id = ?", rec.ID).Delete(&ObjectRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrSceneNotFound, "%q", name)
	}
	if err != nil {
		return errors.Wrapf(err, "delete scene %q", name)
	}
	r.logger.Info("scene deleted", log.String("scene", name))
	return nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
