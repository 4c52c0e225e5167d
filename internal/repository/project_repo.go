package repository

import (
	"errors"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(project *models.Project) error
	GetByID(id uint) (*models.Project, error)
	GetAll() ([]*models.Project, error)
}

type GormProjectRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormProjectRepository(db *gorm.DB) (*GormProjectRepository, error) {
	logger := newLogger()

	// Автомиграция
	if err := db.AutoMigrate(&models.Project{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate projects table")
		return nil, err
	}

	return &GormProjectRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormProjectRepository) Create(project *models.Project) error {
	if !project.IsValid() {
		r.logger.WithField("name", project.Name).Warn("Invalid project data")
		return apperror.New(apperror.KindPreconditionFailed, "invalid project data")
	}

	result := r.db.Create(project)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create project")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":   project.ID,
		"name": project.Name,
	}).Info("Project created successfully")

	return nil
}

func (r *GormProjectRepository) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	result := r.db.First(&project, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Project not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get project by ID")
		return nil, result.Error
	}

	return &project, nil
}

func (r *GormProjectRepository) GetAll() ([]*models.Project, error) {
	var projects []*models.Project
	result := r.db.Find(&projects)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get projects")
		return nil, result.Error
	}

	return projects, nil
}
