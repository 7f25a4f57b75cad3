// Package server exposes the Schnorr login flow and capsule attestation over
// HTTP. All big integers on the wire are hex strings.
package server

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/sealbound/zkauth"
	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/group"
	"github.com/sealbound/zkauth/richens"
	"github.com/sealbound/zkauth/store"
)

// Server wires the credential store and group parameters into an HTTP API.
type Server struct {
	grp      *group.Group
	store    *store.Store
	sessions *sessionManager
	app      *fiber.App
}

// New builds a server around the given group and store.
func New(grp *group.Group, st *store.Store) *Server {
	s := &Server{
		grp:      grp,
		store:    st,
		sessions: newSessionManager(),
	}
	app := fiber.New(fiber.Config{
		AppName:               "zkauth",
		DisableStartupMessage: true,
	})
	app.Post("/register", s.register)
	app.Post("/login/start", s.loginStart)
	app.Post("/login/finish", s.loginFinish)
	app.Post("/attest", s.attest)
	s.app = app
	return s
}

// App returns the underlying fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving the API on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

type registerRequest struct {
	Alias  string   `json:"alias"`
	Secret *big.Int `json:"secret,omitempty"`
}

type registerResponse struct {
	CredentialID string   `json:"credential_id"`
	Alias        string   `json:"alias,omitempty"`
	PublicKey    *big.Int `json:"public_key"`
	Secret       *big.Int `json:"secret"`
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "malformed request body")
	}
	result, err := zkauth.Register(s.grp, s.store, req.Alias, req.Secret)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrAliasExists):
		return errorResponse(c, fiber.StatusConflict, "alias already registered")
	case errors.Is(err, store.ErrCredentialExists):
		return errorResponse(c, fiber.StatusConflict, "credential already registered")
	case errors.Is(err, zkauth.ErrInvalidInput):
		return errorResponse(c, fiber.StatusBadRequest, "secret out of range")
	default:
		s.logError("register", err)
		return errorResponse(c, fiber.StatusInternalServerError, "registration failed")
	}
	s.logEvent("register", logrus.Fields{"credential": result.CredentialID, "alias": result.Alias})
	return c.JSON(registerResponse{
		CredentialID: result.CredentialID,
		Alias:        result.Alias,
		PublicKey:    result.PublicKey,
		Secret:       result.Secret,
	})
}

type loginStartRequest struct {
	CredentialID string   `json:"credential_id"`
	Commitment   *big.Int `json:"commitment"`
}

type loginStartResponse struct {
	Session   string   `json:"session"`
	Challenge *big.Int `json:"challenge"`
}

func (s *Server) loginStart(c *fiber.Ctx) error {
	var req loginStartRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "malformed request body")
	}
	if req.Commitment == nil || req.Commitment.Sign() <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "invalid commitment")
	}
	record, err := s.store.ByCredential(req.CredentialID)
	if err != nil {
		s.logError("login/start", err)
		return errorResponse(c, fiber.StatusInternalServerError, "lookup failed")
	}
	if record == nil {
		return errorResponse(c, fiber.StatusNotFound, "unknown credential")
	}

	verifier, err := zkauth.NewVerifier(s.grp, record.PublicKey)
	if err != nil {
		s.logError("login/start", err)
		return errorResponse(c, fiber.StatusInternalServerError, "corrupt credential")
	}
	challenge := verifier.RandomChallenge()
	token, err := s.sessions.create(record.CredentialID, req.Commitment, challenge)
	if err != nil {
		s.logError("login/start", err)
		return errorResponse(c, fiber.StatusInternalServerError, "session creation failed")
	}
	return c.JSON(loginStartResponse{Session: token, Challenge: challenge})
}

type loginFinishRequest struct {
	Session  string   `json:"session"`
	Response *big.Int `json:"response"`
}

type loginFinishResponse struct {
	Success bool `json:"success"`
}

func (s *Server) loginFinish(c *fiber.Ctx) error {
	var req loginFinishRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "malformed request body")
	}
	if req.Response == nil {
		return errorResponse(c, fiber.StatusBadRequest, "missing response")
	}
	state, ok := s.sessions.pop(req.Session)
	if !ok {
		return errorResponse(c, fiber.StatusNotFound, "unknown session")
	}
	record, err := s.store.ByCredential(state.credentialID)
	if err != nil {
		s.logError("login/finish", err)
		return errorResponse(c, fiber.StatusInternalServerError, "lookup failed")
	}
	if record == nil {
		return errorResponse(c, fiber.StatusNotFound, "unknown credential")
	}
	verifier, err := zkauth.NewVerifier(s.grp, record.PublicKey)
	if err != nil {
		s.logError("login/finish", err)
		return errorResponse(c, fiber.StatusInternalServerError, "corrupt credential")
	}
	success := verifier.Verify(state.commitment, &zkauth.Proof{
		Challenge: state.challenge,
		Response:  req.Response,
	})
	s.logEvent("login", logrus.Fields{"credential": state.credentialID, "success": success})
	return c.JSON(loginFinishResponse{Success: success})
}

type attestRequest struct {
	Capsule   json.RawMessage `json:"capsule"`
	Challenge *big.Int        `json:"challenge"`
	Proof     json.RawMessage `json:"proof"`
}

type attestResponse struct {
	Verified bool   `json:"verified"`
	Persona  string `json:"persona"`
}

func (s *Server) attest(c *fiber.Ctx) error {
	var req attestRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "malformed request body")
	}
	if req.Challenge == nil {
		return errorResponse(c, fiber.StatusBadRequest, "missing challenge")
	}
	capsule, err := richens.ParseCapsule(s.grp, req.Capsule)
	if errors.Is(err, richens.ErrCapsuleIntegrity) {
		return errorResponse(c, fiber.StatusBadRequest, "capsule failed integrity check")
	}
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "malformed capsule")
	}
	proof, err := richens.ParseProof(req.Proof)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "malformed proof")
	}
	verified := richens.VerifyAttestation(s.grp, capsule, req.Challenge, proof)
	s.logEvent("attest", logrus.Fields{"persona": capsule.Persona(), "verified": verified})
	return c.JSON(attestResponse{Verified: verified, Persona: capsule.Persona()})
}

func (s *Server) logEvent(op string, fields logrus.Fields) {
	if zkauth.Logger == nil {
		return
	}
	zkauth.Logger.WithFields(fields).Info(op)
}

func (s *Server) logError(op string, err error) {
	if zkauth.Logger == nil {
		return
	}
	zkauth.Logger.WithError(err).Warn(op + " failed")
}
