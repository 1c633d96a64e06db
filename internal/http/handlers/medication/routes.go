package medication

import (
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Routes registers every sandbox endpoint under prefix (e.g. "/api") and
// wraps them in RequireBearer.
//
// Route table:
//
//	GET  {prefix}/medication-requests/pending
//	PUT  {prefix}/medication-requests/{id}/approve
//	PUT  {prefix}/medication-requests/{id}/reject
//	POST {prefix}/medication-requests/{id}/administer
//	GET  {prefix}/medications/inventory
//	POST {prefix}/medications/inventory
//	PUT  {prefix}/medications/inventory/{id}
func Routes(prefix, token string, backend Backend, validate *validator.Validate) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET "+prefix+"/medication-requests/pending", Pending(backend))
	router.HandleFunc("PUT "+prefix+"/medication-requests/{id}/approve", Approve(backend))
	router.HandleFunc("PUT "+prefix+"/medication-requests/{id}/reject", Reject(backend, validate))
	router.HandleFunc("POST "+prefix+"/medication-requests/{id}/administer", Administer(backend, validate))

	router.HandleFunc("GET "+prefix+"/medications/inventory", ListInventory(backend))
	router.HandleFunc("POST "+prefix+"/medications/inventory", CreateInventory(backend, validate))
	router.HandleFunc("PUT "+prefix+"/medications/inventory/{id}", UpdateInventory(backend, validate))

	return RequireBearer(token, router)
}
