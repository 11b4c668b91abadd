// Package http provides the chi router, handlers, and middleware for the
// room booking API.
//
// The route tree:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     The token is returned in the body, the `X-Session-Token` header, and
//     a `session_token` cookie. DELETE /sessions/current revokes the
//     caller's session and clears the cookie.
//   - GET /rooms, GET /rooms/{id}: room catalog, available to any
//     authenticated principal. POST/PUT/DELETE /rooms are admin only.
//   - GET /users, POST /users, PUT /users/{id}, DELETE /users/{id}:
//     administrator-controlled user management.
//   - POST /bookings, PUT /bookings/{id}, DELETE /bookings/{id}: single
//     booking submission, edit, and cancellation. GET /bookings/dashboard
//     and GET /bookings/my serve the calendar projections.
//   - POST /bookings/recurring, DELETE /recurring-bookings/{id}: recurring
//     booking submission and cancellation. POST
//     /recurring-bookings/{id}/approve and .../deny apply admin decisions;
//     the service layer enforces the Admin role.
//   - GET /admin/approval-queue, GET /bookings/all, GET /admin/reports,
//     POST /admin/bookings/{id}/approve, POST /admin/bookings/{id}/deny,
//     DELETE /admin/bookings/{id}: administrator decision and reporting
//     surfaces.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
