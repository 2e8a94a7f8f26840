// Package rpc implements the node's HTTP surface: thin handlers around the
// submit queue and a read-only state accessor, built on chi for its
// path-parameter routing ("/nonce/{hex}").
package rpc

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"ledgerd/codec"
	"ledgerd/extrinsic"
	"ledgerd/keyring"
	"ledgerd/node"
)

// Server exposes the node's RPC surface.
type Server struct {
	node *node.Node
	log  *logrus.Logger
}

// New returns a Server wired to n.
func New(n *node.Node, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{node: n, log: log}
}

// Router builds the node's three-route chi.Router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/submit", s.handleSubmit)
	r.Get("/nonce/{hex}", s.handleNonce)
	r.Get("/state", s.handleState)
	return r
}

// handleSubmit decodes a raw encoded extrinsic from the body, pushes it
// onto the local mempool and gossips it, responding 202 on success and 400
// on decode or pool-full errors.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var ext extrinsic.Unchecked
	if err := codec.Decode(body, &ext); err != nil {
		s.log.WithError(err).Debug("rpc: /submit decode failed")
		http.Error(w, "malformed extrinsic: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.node.SubmitLocal(ext); err != nil {
		s.log.WithError(err).Debug("rpc: /submit rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleNonce decodes 64 hex chars into an AccountId and returns the
// on-chain nonce plus this node's pending count for that signer.
func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "hex")
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != 32 {
		http.Error(w, "expected 64 hex chars", http.StatusBadRequest)
		return
	}
	var who keyring.AccountId
	copy(who[:], b)

	n := s.node.NonceFor(who)
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, strconv.FormatUint(uint64(n), 10))
}

// handleState dumps a human-readable snapshot of the runtime for
// debugging — not part of the consensus surface.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, s.node.StateDump())
}
