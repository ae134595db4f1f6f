package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/campusgrid/timetable-api/internal/csvio"
	"github.com/campusgrid/timetable-api/internal/models"
	"github.com/campusgrid/timetable-api/internal/repository"
	"github.com/campusgrid/timetable-api/pkg/config"
	"github.com/campusgrid/timetable-api/pkg/database"
	"github.com/campusgrid/timetable-api/pkg/logger"
)

// importer bootstraps the catalog tables from CSV files so a department can
// be onboarded without driving every row through the HTTP API.
func main() {
	var (
		subjectsPath   string
		facultyPath    string
		classroomsPath string
		labsPath       string
		timeout        time.Duration
	)
	flag.StringVar(&subjectsPath, "subjects", "", "Path to subjects CSV")
	flag.StringVar(&facultyPath, "faculty", "", "Path to faculty CSV")
	flag.StringVar(&classroomsPath, "classrooms", "", "Path to classrooms CSV")
	flag.StringVar(&labsPath, "labs", "", "Path to labs CSV")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall import timeout")
	flag.Parse()

	if subjectsPath == "" && facultyPath == "" && classroomsPath == "" && labsPath == "" {
		flag.Usage()
		log.Fatal("at least one CSV path is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if facultyPath != "" {
		repo := repository.NewFacultyRepository(db)
		count, err := importFile(facultyPath, csvio.LoadFaculty, func(m *models.Faculty) error {
			return repo.Create(ctx, m)
		})
		if err != nil {
			logr.Fatal("faculty import failed", zap.Error(err))
		}
		logr.Info("faculty imported", zap.Int("count", count))
	}

	if subjectsPath != "" {
		repo := repository.NewSubjectRepository(db)
		count, err := importFile(subjectsPath, csvio.LoadSubjects, func(m *models.Subject) error {
			return repo.Create(ctx, m)
		})
		if err != nil {
			logr.Fatal("subject import failed", zap.Error(err))
		}
		logr.Info("subjects imported", zap.Int("count", count))
	}

	if classroomsPath != "" {
		repo := repository.NewRoomRepository(db)
		count, err := importFile(classroomsPath, csvio.LoadClassrooms, func(m *models.Classroom) error {
			return repo.CreateClassroom(ctx, m)
		})
		if err != nil {
			logr.Fatal("classroom import failed", zap.Error(err))
		}
		logr.Info("classrooms imported", zap.Int("count", count))
	}

	if labsPath != "" {
		repo := repository.NewRoomRepository(db)
		count, err := importFile(labsPath, csvio.LoadLabs, func(m *models.Lab) error {
			return repo.CreateLab(ctx, m)
		})
		if err != nil {
			logr.Fatal("lab import failed", zap.Error(err))
		}
		logr.Info("labs imported", zap.Int("count", count))
	}
}

func importFile[T any](path string, load func(r io.Reader) ([]T, error), persist func(*T) error) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := load(file)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range rows {
		if err := persist(&rows[i]); err != nil {
			return i, fmt.Errorf("persist row %d of %s: %w", i+1, path, err)
		}
	}
	return len(rows), nil
}
