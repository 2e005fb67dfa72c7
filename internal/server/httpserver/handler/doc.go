// Package handler provides the storefront route groups.
//
// Each group owns one API prefix and implements Group:
//
//   - UserGroup: /api/user (register, login, profile lookup)
//   - ProductGroup: /api/product (catalog with image uploads)
//   - CartGroup: /api/cart (per-user carts)
//   - OrderGroup: /api/order (placement and status)
//   - MediaGroup: /media (uploaded product images)
//
// Groups see the request path with their prefix stripped. A handler either
// writes a response, returns an error for the pipeline's error terminator,
// or returns ErrNoRoute so the pipeline keeps looking.
//
// JSON responses use the Response envelope.
package handler
