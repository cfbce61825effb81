package boards

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
	pkgerrors "github.com/minsukang/dalligo-backend/pkg/errors"
)

// CreateInput is the payload for a new board post.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email"`
	Contents string `json:"contents" validate:"required,max=4000"`
	Category string `json:"category" validate:"omitempty,oneof=information notice"`
}

// Service is flat CRUD over board posts.
type Service struct {
	db *gorm.DB
}

// NewService wires the boards service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Board, error) {
	if input.Email == "" || input.Contents == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and contents are required")
	}
	category := enums.BoardCategoryInformation
	if input.Category != "" {
		parsed, err := enums.ParseBoardCategory(input.Category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		category = parsed
	}

	board := &models.Board{
		Email:    input.Email,
		Contents: input.Contents,
		Category: category,
	}
	if err := s.db.WithContext(ctx).Create(board).Error; err != nil {
		return nil, err
	}
	return board, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Board, error) {
	var board models.Board
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&board).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "board post not found")
		}
		return nil, err
	}
	return &board, nil
}

func (s *Service) List(ctx context.Context, category *enums.BoardCategory, limit int) ([]models.Board, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Model(&models.Board{})
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	var rows []models.Board
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Board{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "board post not found")
	}
	return nil
}
