package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/gipsh/emerald-signer/internal/apperr"
)

// request is the JSON-RPC 2.0 envelope (spec §6, "JSON-RPC over HTTP").
type request struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

type response struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *jsonrpcError `json:"error,omitempty"`
}

// methodFunc handles one JSON-RPC method's positional params array.
type methodFunc func(svc *Service, params []json.RawMessage) (interface{}, error)

// param decodes params[i] into dst, treating a missing trailing element as
// its zero value (many methods' "additional" object is optional).
func param(params []json.RawMessage, i int, dst interface{}) error {
	if i >= len(params) {
		return nil
	}
	if err := json.Unmarshal(params[i], dst); err != nil {
		return apperr.Wrap(apperr.InvalidDataFormat, "decode parameter", err)
	}
	return nil
}

// NewRouter builds the gorilla/mux router serving every method in spec
// §6's table at a single JSON-RPC endpoint, with permissive CORS.
func NewRouter(svc *Service, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", handleRPC(svc, log)).Methods(http.MethodPost, http.MethodOptions)
	r.Use(corsMiddleware)
	return r
}

// corsMiddleware implements the "*"/"null" permissive CORS policy spec §6
// requires.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		if origin == "" || origin == "null" {
			w.Header().Set("Access-Control-Allow-Origin", "null")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func handleRPC(svc *Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, response{JSONRPC: "2.0", Error: &jsonrpcError{Code: codeInvalidParams, Message: "malformed json-rpc request"}})
			return
		}

		log.Info().Str("method", req.Method).Msg("rpc request")

		handler, ok := methodTable[req.Method]
		if !ok {
			writeJSON(w, response{JSONRPC: "2.0", ID: req.ID, Error: &jsonrpcError{Code: codeInvalidParams, Message: "unknown method"}})
			return
		}

		result, err := handler(svc, req.Params)
		if err != nil {
			log.Error().Err(err).Str("method", req.Method).Msg("rpc handler failed")
			writeJSON(w, response{JSONRPC: "2.0", ID: req.ID, Error: wrapErr(err)})
			return
		}
		writeJSON(w, response{JSONRPC: "2.0", ID: req.ID, Result: result})
	}
}

func wrapErr(err error) *jsonrpcError {
	e := toJSONRPCError(err)
	return &e
}

func writeJSON(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
