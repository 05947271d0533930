package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// callMomResponse is the JSON shape POST /call_mom always returns, success
// or failure, per spec §6's contract.
type callMomResponse struct {
	OK      bool   `json:"ok"`
	CallSID string `json:"call_sid,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

type twilioCallResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

func writeCallMomJSON(w http.ResponseWriter, statusCode int, resp callMomResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// handleCallMom places an outbound call via Twilio's Calls API, pointed
// back at our own /voice webhook for instructions, per
// original_source/app/outbound_call_handler.py's contract. The body is
// ignored; the destination comes from MOM_PHONE_NUMBER.
func handleCallMom(bearerToken, accountSID, authToken, fromNumber, momPhoneNumber, publicBaseURL string) http.HandlerFunc {
	client := &http.Client{Timeout: 15 * time.Second}

	return func(w http.ResponseWriter, r *http.Request) {
		if bearerToken == "" || r.Header.Get("Authorization") != "Bearer "+bearerToken {
			writeCallMomJSON(w, http.StatusUnauthorized, callMomResponse{OK: false, Error: "unauthorized"})
			return
		}

		if accountSID == "" || authToken == "" || fromNumber == "" || momPhoneNumber == "" {
			writeCallMomJSON(w, http.StatusInternalServerError, callMomResponse{OK: false, Error: "call_mom is not configured"})
			return
		}

		endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Calls.json", accountSID)
		form := url.Values{
			"To":     {momPhoneNumber},
			"From":   {fromNumber},
			"Url":    {publicBaseURL + "/voice"},
			"Method": {"POST"},
		}

		httpReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			writeCallMomJSON(w, http.StatusInternalServerError, callMomResponse{OK: false, Error: "internal error"})
			return
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		httpReq.SetBasicAuth(accountSID, authToken)

		resp, err := client.Do(httpReq)
		if err != nil {
			slog.Warn("call_mom: twilio request failed", "error", err)
			writeCallMomJSON(w, http.StatusInternalServerError, callMomResponse{OK: false, Error: "failed to place call"})
			return
		}
		defer resp.Body.Close()

		var result twilioCallResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || resp.StatusCode >= 400 {
			slog.Warn("call_mom: twilio returned an error", "status", resp.StatusCode, "error", err)
			writeCallMomJSON(w, http.StatusInternalServerError, callMomResponse{OK: false, Error: "failed to place call"})
			return
		}

		writeCallMomJSON(w, http.StatusOK, callMomResponse{OK: true, CallSID: result.SID, Status: result.Status})
	}
}
