package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"lenta/parser/internal/client"
	"lenta/parser/internal/config"
	"lenta/parser/internal/domain"
	"lenta/parser/internal/identity"
	"lenta/parser/internal/output"
	"lenta/parser/internal/repository"
	"lenta/parser/internal/state"

	log "github.com/sirupsen/logrus"
)

// ErrNoSession is returned when the session bootstrap yields no token; no
// catalog access is possible without one.
var ErrNoSession = errors.New("failed to obtain a session token")

type Service struct {
	client       client.LentaClient
	repository   repository.ProductRepository
	stateManager state.StateManager
	cfg          *config.Config
	in           io.Reader
	scanner      *bufio.Scanner
}

func NewService(
	client client.LentaClient,
	repository repository.ProductRepository,
	stateManager state.StateManager,
	cfg *config.Config,
	in io.Reader,
) *Service {
	return &Service{
		client:       client,
		repository:   repository,
		stateManager: stateManager,
		cfg:          cfg,
		in:           in,
	}
}

// Run drives one full interactive session: bootstrap, store selection and
// activation, category selection, paginated fetch, output. Fully sequential;
// every network call blocks.
func (s *Service) Run(ctx context.Context) error {
	deviceID := identity.NewDeviceID()
	token, err := s.client.BootstrapSession(ctx, deviceID)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoSession
	}
	sess := &domain.Session{DeviceID: deviceID, Token: token}
	log.Info("Session established")

	stores, err := s.client.ListStores(ctx, sess)
	if err != nil {
		return err
	}
	if len(stores) == 0 {
		return errors.New("no stores available in the target regions")
	}

	store, err := s.selectStore(stores)
	if err != nil {
		return err
	}
	log.Infof("Selected store %s (%s)", store.ID, store.Name)

	if _, err := s.client.ActivateStore(ctx, sess, store.ID); err != nil {
		return err
	}

	categories, err := s.client.GetCategoryTree(ctx, store.ID)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return errors.New("catalog document contained no categories")
	}

	category, err := s.selectCategory(categories)
	if err != nil {
		return err
	}
	log.Infof("Selected category %s (%s)", category.Code, category.Name)

	startOffset, err := s.stateManager.GetLastOffset(ctx, store.ID, category.Code)
	if err != nil {
		log.Warnf("Failed to read resume offset, starting from 0: %v", err)
		startOffset = 0
	}
	if startOffset > 0 {
		log.Infof("🔄 Resuming from offset %d", startOffset)
	}

	limit := s.cfg.Output.Limit
	fetched := 0
	products, err := s.client.FetchCatalog(ctx, category.Code, limit, store.ID, startOffset,
		func(offset, matched int) {
			fetched += matched
			log.Infof("Fetched %d/%d products (offset %d)", min(fetched, limit), limit, offset)
			if err := s.stateManager.SetLastOffset(ctx, store.ID, category.Code, offset+s.cfg.Lenta.PageLimit); err != nil {
				log.Warnf("Failed to checkpoint offset %d: %v", offset, err)
			}
		})
	if err != nil {
		return err
	}

	if s.cfg.Output.BackfillBrand {
		s.backfillBrands(ctx, sess, products)
	}

	if err := output.SaveProducts(s.cfg.Output.File, products); err != nil {
		return err
	}
	log.Infof("✅ Saved %d products to %s", len(products), s.cfg.Output.File)

	if s.repository != nil {
		if err := s.repository.SaveProducts(ctx, store.ID, category.Code, products); err != nil {
			return fmt.Errorf("failed to mirror products to database: %w", err)
		}
		log.Infof("Mirrored %d products to database", len(products))
	}

	// The run completed, so the saved offset would only mislead a later run.
	if err := s.stateManager.SetLastOffset(ctx, store.ID, category.Code, 0); err != nil {
		log.Warnf("Failed to clear resume offset: %v", err)
	}

	return nil
}

func (s *Service) backfillBrands(ctx context.Context, sess *domain.Session, products []domain.Product) {
	for i := range products {
		if products[i].Brand != "" {
			continue
		}
		brand, err := s.client.GetItemBrand(ctx, sess, products[i].ID)
		if err != nil {
			log.Warnf("Brand lookup for %s failed: %v", products[i].ID, err)
			continue
		}
		if brand != "" {
			products[i].Brand = brand
		}
	}
}
