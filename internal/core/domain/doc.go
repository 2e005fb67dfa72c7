// Package domain defines the core domain models for the storefront.
//
// Domain models are plain entities without any IO dependencies or
// framework coupling. This package contains:
//
//   - User: registered customer account
//   - Product: catalog entry with media URLs
//   - Cart: per-user item quantities keyed by product and size
//   - Order: placed order snapshot with status lifecycle
//   - Errors: coded domain errors mapped to HTTP statuses
package domain
