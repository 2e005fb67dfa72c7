// Package service provides the storefront domain services.
//
//   - UserService: registration and credential checks
//   - ProductService: catalog management with media uploads
//   - CartService: per-user carts
//   - OrderService: order placement from carts and status updates
//
// Services persist entities through storage.Collection and return
// domain errors, which the HTTP layer maps to status codes.
package service
