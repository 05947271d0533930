package main

import (
	"fmt"
	"net/http"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleVoice answers Twilio's webhook with TwiML that connects the call to
// our bidirectional media stream.
func handleVoice(publicBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamURL := wsURL(publicBaseURL) + "/stream"
		twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Connect>
    <Stream url="%s" />
  </Connect>
</Response>`, streamURL)

		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(twiml))
	}
}

// wsURL rewrites an https/http base URL to its wss/ws equivalent.
func wsURL(base string) string {
	switch {
	case len(base) >= 8 && base[:8] == "https://":
		return "wss://" + base[8:]
	case len(base) >= 7 && base[:7] == "http://":
		return "ws://" + base[7:]
	default:
		return base
	}
}
