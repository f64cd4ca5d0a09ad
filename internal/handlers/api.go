package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fbettag/softap-manager/internal/auth"
	"github.com/fbettag/softap-manager/internal/config"
	"github.com/fbettag/softap-manager/internal/database"
	"github.com/fbettag/softap-manager/internal/scancache"
	"github.com/fbettag/softap-manager/internal/softap"
)

type App struct {
	Config       *config.Config
	ConfigPath   string
	DB           *database.DB
	Logger       *logrus.Logger
	SessionStore *auth.SessionStore
	Manager      *softap.Manager
	Recorder     *Recorder
	ScanCache    *scancache.Cache
}

// Helper function to send JSON error responses
func (app *App) sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	}); err != nil {
		app.Logger.Errorf("Failed to encode error response: %v", err)
	}
}

func (app *App) sendJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		app.Logger.Errorf("Failed to encode response: %v", err)
	}
}

// AuthMiddleware rejects unauthenticated API calls.
func (app *App) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.SessionStore.IsAuthenticated(r) {
			app.sendJSONError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (app *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	if req.Username != app.Config.Admin.Username || !app.Config.VerifyAdminPassword(req.Password) {
		app.Logger.Warnf("Failed login attempt for user %q", req.Username)
		app.sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := app.SessionStore.Login(r, w); err != nil {
		app.sendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	app.sendJSON(w, map[string]interface{}{"success": true})
}

func (app *App) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.SessionStore.Logout(r, w); err != nil {
		app.Logger.Errorf("Failed to destroy session: %v", err)
	}
	app.sendJSON(w, map[string]interface{}{"success": true})
}

func (app *App) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := app.Recorder.Status()
	app.sendJSON(w, map[string]interface{}{
		"success": true,
		"status":  status,
		"role":    app.Manager.Role().String(),
	})
}

func (app *App) StartHandler(w http.ResponseWriter, r *http.Request) {
	app.Manager.Start()
	app.sendJSON(w, map[string]interface{}{"success": true})
}

func (app *App) StopHandler(w http.ResponseWriter, r *http.Request) {
	app.Manager.Stop()
	app.sendJSON(w, map[string]interface{}{"success": true})
}

func (app *App) GetClientsHandler(w http.ResponseWriter, r *http.Request) {
	status := app.Recorder.Status()
	app.sendJSON(w, map[string]interface{}{
		"success": true,
		"clients": status.Clients,
		"count":   len(status.Clients),
	})
}

func (app *App) UpdateConfigHandler(w http.ResponseWriter, r *http.Request) {
	var req config.APConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	app.Config.AP = req
	apCfg, err := app.Config.ToSoftApConfiguration()
	if err != nil {
		app.sendJSONError(w, fmt.Sprintf("Invalid AP configuration: %v", err), http.StatusBadRequest)
		return
	}

	if err := config.SaveConfig(app.ConfigPath, app.Config); err != nil {
		app.Logger.Errorf("Failed to save configuration: %v", err)
		app.sendJSONError(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}

	app.Manager.UpdateConfiguration(apCfg)
	app.sendJSON(w, map[string]interface{}{"success": true})
}

func (app *App) GetJournalHandler(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := app.DB.GetEntries(limit, 0)
	if err != nil {
		app.Logger.Errorf("Failed to read journal: %v", err)
		app.sendJSONError(w, "Failed to read journal", http.StatusInternalServerError)
		return
	}

	app.sendJSON(w, map[string]interface{}{
		"success": true,
		"entries": entries,
	})
}

func (app *App) GetScansHandler(w http.ResponseWriter, r *http.Request) {
	if app.ScanCache == nil {
		app.sendJSON(w, map[string]interface{}{"success": true, "results": []scancache.Result{}})
		return
	}
	app.sendJSON(w, map[string]interface{}{
		"success": true,
		"results": app.ScanCache.All(),
	})
}

func (app *App) DumpHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	app.Manager.Dump(w)
}

// Routes wires the control API onto a router.
func (app *App) Routes(router *mux.Router) {
	router.HandleFunc("/api/login", app.LoginHandler).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(app.AuthMiddleware)

	api.HandleFunc("/logout", app.LogoutHandler).Methods("POST")
	api.HandleFunc("/status", app.GetStatusHandler).Methods("GET")
	api.HandleFunc("/start", app.StartHandler).Methods("POST")
	api.HandleFunc("/stop", app.StopHandler).Methods("POST")
	api.HandleFunc("/clients", app.GetClientsHandler).Methods("GET")
	api.HandleFunc("/config", app.UpdateConfigHandler).Methods("PUT")
	api.HandleFunc("/journal", app.GetJournalHandler).Methods("GET")
	api.HandleFunc("/scans", app.GetScansHandler).Methods("GET")
	api.HandleFunc("/dump", app.DumpHandler).Methods("GET")
}
