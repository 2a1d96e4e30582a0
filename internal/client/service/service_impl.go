package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicer/internal/client/domain"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/pkg/db"
	"github.com/smallbiznis/invoicer/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.ClientInput) (domain.Client, error) {
	client, err := normalizeInput(req)
	if err != nil {
		return domain.Client{}, err
	}

	now := s.clock.Now()
	client.ID = s.genID.Generate()
	client.CreatedAt = now
	client.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		return domain.Client{}, err
	}
	s.log.Info("client created", zap.String("client_id", client.ID.String()))
	return client, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.ClientInput) (domain.Client, error) {
	clientID, err := parseID(id)
	if err != nil {
		return domain.Client{}, err
	}
	next, err := normalizeInput(req)
	if err != nil {
		return domain.Client{}, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	if existing == nil {
		return domain.Client{}, domain.ErrNotFound
	}

	next.ID = existing.ID
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, &next); err != nil {
		return domain.Client{}, err
	}
	return next, nil
}

// Delete removes a client that has no invoices. The invoice check and the
// delete share a transaction; a foreign key rejection maps to the same error.
func (s *Service) Delete(ctx context.Context, id string) error {
	clientID, err := parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoices, err := s.repo.CountInvoices(ctx, tx, clientID)
		if err != nil {
			return err
		}
		if invoices > 0 {
			return domain.ErrHasInvoices
		}
		rows, err := s.repo.Delete(ctx, tx, clientID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if db.IsForeignKeyErr(err) {
		return domain.ErrHasInvoices
	}
	if err == nil {
		s.log.Info("client deleted", zap.String("client_id", clientID.String()))
	}
	return err
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Client, error) {
	clientID, err := parseID(id)
	if err != nil {
		return domain.Client{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListClientRequest) (domain.ListClientResponse, error) {
	pageToken := strings.TrimSpace(req.PageToken)
	if pageToken != "" {
		cursor, err := pagination.DecodeCursor(pageToken)
		if err != nil || cursor.ID == 0 {
			return domain.ListClientResponse{}, domain.ErrInvalidPageToken
		}
	}

	pageSize := pagination.NormalizePageSize(req.PageSize)
	items, err := s.repo.List(ctx, s.db,
		domain.ListClientFilter{Name: strings.TrimSpace(req.Name)},
		pagination.Pagination{PageToken: pageToken, PageSize: pageSize},
	)
	if err != nil {
		return domain.ListClientResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(client *domain.Client) pagination.Cursor {
		return pagination.Cursor{ID: client.ID.Int64(), CreatedAt: client.CreatedAt}
	})

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}
	return domain.ListClientResponse{PageInfo: pageInfo, Clients: clients}, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, s.db)
}

func normalizeInput(req domain.ClientInput) (domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Client{}, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.Email)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return domain.Client{}, domain.ErrInvalidEmail
		}
	}

	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	return domain.Client{
		Name:     name,
		Address:  strings.TrimSpace(req.Address),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    email,
		TaxID:    strings.TrimSpace(req.TaxID),
		Metadata: metadata,
	}, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
