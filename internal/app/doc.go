// Package app composes the pet store services into a running application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct and service wiring
//	├── domain/             # Domain models (pure data structures)
//	│   ├── catalog/        # Pets and categories
//	│   ├── cart/           # Per-user shopping carts
//	│   ├── order/          # Orders, payments and deliveries
//	│   ├── discount/       # Discount codes
//	│   ├── user/           # Accounts and addresses
//	│   └── audit/          # Append-only audit trail
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # Store interfaces the services depend on
//	│   ├── memory/         # In-memory implementation for testing
//	│   └── postgres/       # PostgreSQL implementation for production
//	├── services/           # Business logic (auth, catalog, carts, orders, ...)
//	├── httpapi/            # HTTP routing, handlers and middleware
//	├── cache/              # Redis-backed pet cache
//	└── metrics/            # Prometheus instrumentation
//
// # Responsibilities
//
// The app package is responsible for:
//
//   - Composing services from internal/app/services/ with their dependencies
//   - Defining storage interfaces that services depend on
//   - Providing domain models shared across services
//   - Exposing the REST API for external access
//
// Business rules live in internal/app/services/; HTTP concerns live in
// internal/app/httpapi/; persistence lives in internal/app/storage/.
//
// # Example: Adding a New Domain
//
// When adding a new domain (e.g. "reviews"):
//
//  1. Create domain models in internal/app/domain/review/
//  2. Add a storage interface to internal/app/storage/interfaces.go
//  3. Implement storage in internal/app/storage/postgres/ and memory/
//  4. Create a service in internal/app/services/reviews/service.go
//  5. Wire the service in internal/app/application.go
//  6. Add HTTP handlers in internal/app/httpapi/review_handlers.go
package app
