// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// server.go — HTTP surface of the standalone codec service: POST /encode
// and POST /decode taking a JSON payload batch, plus the CORS preflight the
// workflow-history viewer needs on /decode.

package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AndrewDonelson/claimcheck"
)

// payloadsBody is the JSON request and response envelope: metadata values
// and data ride as base64 strings, encoding/json's []byte treatment.
type payloadsBody struct {
	Payloads []claimcheck.Payload `json:"payloads"`
}

type codecServer struct {
	codec    claimcheck.PayloadCodec
	uiOrigin string
	logger   *zap.SugaredLogger
}

func newRouter(s *codecServer) chi.Router {
	r := chi.NewRouter()
	r.Post("/encode", s.apply(s.codec.Encode))
	r.Post("/decode", s.apply(s.codec.Decode))
	r.Options("/decode", s.preflight)
	return r
}

// cors echoes the allow headers only for the configured viewer origin.
func (s *codecServer) cors(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Origin") != s.uiOrigin {
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", s.uiOrigin)
	h.Set("Access-Control-Allow-Methods", "POST")
	h.Set("Access-Control-Allow-Headers", "content-type,x-namespace")
}

func (s *codecServer) preflight(w http.ResponseWriter, r *http.Request) {
	s.cors(w, r)
	w.WriteHeader(http.StatusOK)
}

// apply is the general-purpose payloads-to-payloads handler shared by both
// endpoints.
func (s *codecServer) apply(fn func(context.Context, []claimcheck.Payload) ([]claimcheck.Payload, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body payloadsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "malformed payloads body: "+err.Error(), http.StatusBadRequest)
			return
		}
		out, err := fn(r.Context(), body.Payloads)
		if err != nil {
			s.logger.Errorw("codec apply failed", "path", r.URL.Path, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.cors(w, r)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payloadsBody{Payloads: out}); err != nil {
			s.logger.Errorw("codec response write failed", "path", r.URL.Path, "error", err)
		}
	}
}
