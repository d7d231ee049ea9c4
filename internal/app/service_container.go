package app

import (
	"fmt"
	"log"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"swap-backend/internal/clients"
	"swap-backend/internal/config"
	"swap-backend/internal/db"
	"swap-backend/internal/events"
	"swap-backend/internal/pipeline"
	"swap-backend/internal/pricing"
	"swap-backend/internal/quotestore"
	"swap-backend/internal/repository"
	"swap-backend/internal/services"
)

// ServiceContainer wires every service in dependency order.
type ServiceContainer struct {
	DB *gorm.DB

	// Repositories
	QuoteArchiveRepo repository.QuoteArchiveRepository
	SwapAttemptRepo  repository.SwapAttemptRepository

	// Clients
	PriceClient   *clients.PriceClient
	BundlerClient *clients.BundlerClient

	// Core Services
	PricingEngine  *pricing.Engine
	QuoteStore     quotestore.Store
	QuoteService   *pipeline.QuoteService
	SignerService  *services.SignerService
	Orchestrator   *pipeline.Orchestrator
	EventPublisher *events.Publisher

	// Pipeline policy and contract set
	Policy     pipeline.Policy
	EntryPoint common.Address
	Paymaster  common.Address
	Delegate   common.Address
	ChainID    uint64
}

// Global service container instance
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container exactly once.
func InitializeContainer() (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		log.Println("🚀 Initializing Service Container...")

		cfg := config.AppConfig
		if cfg == nil {
			initErr = fmt.Errorf("configuration not loaded")
			return
		}

		container := &ServiceContainer{
			DB:         db.DB,
			EntryPoint: common.HexToAddress(cfg.Swap.EntryPoint),
			Paymaster:  common.HexToAddress(cfg.Sponsor.Paymaster),
			Delegate:   common.HexToAddress(cfg.Swap.Delegate),
			ChainID:    cfg.Swap.ChainID,
			Policy: pipeline.Policy{
				GasBufferBps:   cfg.Sponsor.GasBufferBps,
				FixedMarkupWei: cfg.FixedMarkup(),
			},
		}

		container.initRepositories()

		if err := container.initClients(cfg); err != nil {
			initErr = fmt.Errorf("failed to initialize clients: %w", err)
			return
		}

		if err := container.initCoreServices(cfg); err != nil {
			initErr = fmt.Errorf("failed to initialize core services: %w", err)
			return
		}

		if err := container.initEventServices(cfg); err != nil {
			// Event publishing is optional, log but don't fail
			log.Printf("⚠️ Event services initialization skipped or failed: %v", err)
		}

		container.initOrchestrator()

		Container = container
		log.Println("✅ Service Container initialized successfully")
	})

	return Container, initErr
}

func (c *ServiceContainer) initRepositories() {
	if c.DB == nil {
		return
	}
	log.Println("📦 Initializing Repositories...")
	c.QuoteArchiveRepo = repository.NewQuoteArchiveRepository(c.DB)
	c.SwapAttemptRepo = repository.NewSwapAttemptRepository(c.DB)
	log.Println("✅ Repositories initialized")
}

func (c *ServiceContainer) initClients(cfg *config.Config) error {
	log.Println("🔧 Initializing Clients...")

	c.PriceClient = clients.NewPriceClient(cfg.Oracle)
	c.BundlerClient = clients.NewBundlerClient(cfg.Bundler, c.EntryPoint)

	log.Println("✅ Clients initialized")
	return nil
}

func (c *ServiceContainer) initCoreServices(cfg *config.Config) error {
	log.Println("🔧 Initializing Core Services...")

	c.PricingEngine = pricing.NewEngine(
		cfg.InputTokenAddresses(),
		common.HexToAddress(cfg.Swap.OutputToken.Address),
	)

	memStore := quotestore.NewMemoryStore(quotestore.SystemClock{})
	if c.QuoteArchiveRepo != nil {
		c.QuoteStore = quotestore.NewArchiveStore(memStore, c.QuoteArchiveRepo)
	} else {
		c.QuoteStore = memStore
	}

	c.QuoteService = pipeline.NewQuoteService(
		c.PricingEngine,
		c.PriceClient,
		c.QuoteStore,
		quotestore.SystemClock{},
		common.HexToAddress(cfg.Swap.Router),
		cfg.Swap.ChainID,
		cfg.Swap.QuoteTTLSeconds,
	)

	signer, err := services.NewSignerService(cfg)
	if err != nil {
		// The quote API works without a signer; only the execute path needs
		// one.
		log.Printf("⚠️ [ServiceContainer] Signer unavailable: %v", err)
		log.Printf("   → /api/swap/execute will be disabled until a signer is configured")
	} else {
		c.SignerService = signer
	}

	log.Println("✅ Core Services initialized")
	return nil
}

func (c *ServiceContainer) initEventServices(cfg *config.Config) error {
	publisher, err := events.NewPublisher(cfg.NATS)
	if err != nil {
		return err
	}
	c.EventPublisher = publisher
	return nil
}

func (c *ServiceContainer) initOrchestrator() {
	if c.SignerService == nil {
		return
	}

	digestSigner := c.SignerService.DigestSigner()

	// A typed nil would defeat the orchestrator's nil check on the interface.
	var sink pipeline.EventSink
	if c.EventPublisher != nil {
		sink = c.EventPublisher
	}

	c.Orchestrator = pipeline.NewOrchestrator(
		c.QuoteService,
		c.BundlerClient,
		c.BundlerClient,
		digestSigner,
		c.SignerService,
		sink,
		c.Policy,
		c.EntryPoint,
		c.Paymaster,
		c.Delegate,
		c.ChainID,
	)
}

// Cleanup releases long-lived connections.
func (c *ServiceContainer) Cleanup() {
	log.Println("🧹 Cleaning up Service Container...")

	if c.EventPublisher != nil {
		c.EventPublisher.Close()
	}

	log.Println("✅ Service Container cleaned up")
}
