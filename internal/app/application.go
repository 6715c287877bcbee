package app

import (
	authsvc "github.com/pawmart/petstore/internal/app/services/auth"
	cartsvc "github.com/pawmart/petstore/internal/app/services/carts"
	catalogsvc "github.com/pawmart/petstore/internal/app/services/catalog"
	discountsvc "github.com/pawmart/petstore/internal/app/services/discounts"
	ordersvc "github.com/pawmart/petstore/internal/app/services/orders"
	"github.com/pawmart/petstore/internal/app/services/ordernum"
	"github.com/pawmart/petstore/internal/app/services/payments"
	usersvc "github.com/pawmart/petstore/internal/app/services/users"
	"github.com/pawmart/petstore/internal/app/storage"
	"github.com/pawmart/petstore/internal/app/storage/memory"
	"github.com/pawmart/petstore/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users      storage.UserStore
	Addresses  storage.AddressStore
	Categories storage.CategoryStore
	Pets       storage.PetStore
	Carts      storage.CartStore
	Discounts  storage.DiscountStore
	Orders     storage.OrderStore
	Deliveries storage.DeliveryStore
	Audits     storage.AuditStore
}

// Options tunes the application wiring.
type Options struct {
	TokenProvider *authsvc.TokenProvider
	OrderNumbers  ordernum.Generator
	PetCache      catalogsvc.PetCache
}

// Application ties the domain services together.
type Application struct {
	log *logger.Logger

	Auth      *authsvc.Service
	Users     *usersvc.Service
	Catalog   *catalogsvc.Service
	Carts     *cartsvc.Service
	Discounts *discountsvc.Service
	Orders    *ordersvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Addresses == nil {
		stores.Addresses = mem
	}
	if stores.Categories == nil {
		stores.Categories = mem
	}
	if stores.Pets == nil {
		stores.Pets = mem
	}
	if stores.Carts == nil {
		stores.Carts = mem
	}
	if stores.Discounts == nil {
		stores.Discounts = mem
	}
	if stores.Orders == nil {
		stores.Orders = mem
	}
	if stores.Deliveries == nil {
		stores.Deliveries = mem
	}
	if stores.Audits == nil {
		stores.Audits = mem
	}

	if opts.OrderNumbers == nil {
		opts.OrderNumbers = ordernum.UUID{}
	}

	discountService := discountsvc.NewService(stores.Discounts, log.WithComponent("discounts"))
	catalogService := catalogsvc.NewService(stores.Pets, stores.Categories, opts.PetCache, log.WithComponent("catalog"))
	cartService := cartsvc.NewService(stores.Carts, stores.Pets, log.WithComponent("carts"))
	userService := usersvc.NewService(stores.Users, stores.Addresses, stores.Pets, stores.Orders, log.WithComponent("users"))
	authService := authsvc.NewService(stores.Users, opts.TokenProvider, log.WithComponent("auth"))
	orderService := ordersvc.NewService(
		stores.Orders,
		stores.Deliveries,
		stores.Carts,
		stores.Pets,
		stores.Addresses,
		stores.Audits,
		discountService,
		payments.NewFactory(),
		opts.OrderNumbers,
		log.WithComponent("orders"),
	)

	return &Application{
		log:       log,
		Auth:      authService,
		Users:     userService,
		Catalog:   catalogService,
		Carts:     cartService,
		Discounts: discountService,
		Orders:    orderService,
	}
}
