package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/faerion/keygate/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	Expiry  int64  `json:"expiry"`
}

type initRequest struct {
	AppSecret string `json:"app_secret"`
}

func (h *AuthHandler) Init(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.AppSecret == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "app_secret is required")
		return
	}

	result, err := h.svc.Init(r.Context(), req.AppSecret)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type loginRequest struct {
	AppSecret string `json:"app_secret"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	HWID      string `json:"hwid,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.AppSecret == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "app_secret, username and password are required")
		return
	}

	session, err := h.svc.Login(r.Context(), service.LoginInput{
		AppSecret: req.AppSecret,
		Username:  req.Username,
		Password:  req.Password,
		HWID:      req.HWID,
		Meta:      requestMeta(r),
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Login successful",
		Token:   session.Token,
		Expiry:  session.ExpiresAt,
	})
}

type registerRequest struct {
	AppSecret  string `json:"app_secret"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email,omitempty"`
	HWID       string `json:"hwid,omitempty"`
	LicenseKey string `json:"license_key,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.AppSecret == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "app_secret, username and password are required")
		return
	}

	session, err := h.svc.Register(r.Context(), service.RegisterInput{
		AppSecret:  req.AppSecret,
		Username:   req.Username,
		Password:   req.Password,
		Email:      req.Email,
		HWID:       req.HWID,
		LicenseKey: req.LicenseKey,
		Meta:       requestMeta(r),
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "Registration successful",
		Token:   session.Token,
		Expiry:  session.ExpiresAt,
	})
}

type licenseLoginRequest struct {
	AppSecret  string `json:"app_secret"`
	LicenseKey string `json:"license_key"`
	HWID       string `json:"hwid,omitempty"`
	Username   string `json:"username,omitempty"`
	PCName     string `json:"pc_name,omitempty"`
}

func (h *AuthHandler) LicenseLogin(w http.ResponseWriter, r *http.Request) {
	var req licenseLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.AppSecret == "" || req.LicenseKey == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "app_secret and license_key are required")
		return
	}

	session, err := h.svc.LicenseLogin(r.Context(), service.LicenseLoginInput{
		AppSecret:  req.AppSecret,
		LicenseKey: req.LicenseKey,
		HWID:       req.HWID,
		Username:   req.Username,
		PCName:     req.PCName,
		Meta:       requestMeta(r),
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "License authentication successful",
		Token:   session.Token,
		Expiry:  session.ExpiresAt,
	})
}

func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}
