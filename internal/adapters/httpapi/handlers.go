package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/itweera/lyricstage/internal/adapters/auth"
	"github.com/itweera/lyricstage/internal/app"
	"github.com/itweera/lyricstage/internal/domain"
	"github.com/itweera/lyricstage/internal/extract"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func handleLogin(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
			return
		}
		ident, token, err := svc.Login(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
				return
			}
			log.Error().Err(err).Str("module", "adapters.httpapi").Msg("login")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Login successful",
			"user":    ident,
			"token":   token,
		})
	}
}

func handleLogout(c *gin.Context) {
	// Tokens are stateless; the client just discards its copy.
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

func handleMe(c *gin.Context) {
	ident := c.MustGet("user").(domain.Identity)
	c.JSON(http.StatusOK, gin.H{"user": ident})
}

// handleUpload stores the file, extracts its text and hands the document to
// the broadcaster. Extraction runs before the coordinator is ever touched,
// so its latency never sits inside the broadcast critical section.
func handleUpload(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "File upload failed", "message": err.Error()})
			return
		}
		defer src.Close()

		stored, err := deps.Store.Save(fh.Filename, src)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.httpapi").Msg("upload store")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "File upload failed", "message": err.Error()})
			return
		}

		text, err := deps.Extractor.Text(stored.Path, stored.MimeType)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.httpapi").Str("file", stored.FileName).Msg("extraction fallback")
			text = extract.Placeholder(err)
		}

		doc := domain.Document{
			FileName:       stored.FileName,
			StoredFileName: stored.StoredFileName,
			FilePath:       stored.Path,
			FileSize:       stored.Size,
			MimeType:       stored.MimeType,
			ExtractedText:  text,
			Timestamp:      time.Now().UTC(),
		}
		deps.Broadcaster.PublishDocument(doc)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "File uploaded and broadcasted successfully",
			"file":    doc,
		})
	}
}

func handleHealth(bc *app.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		devices, snap := bc.Status()
		var current any
		if !snap.CurrentDocument.Empty() {
			current = snap.CurrentDocument.FileName
		}
		c.JSON(http.StatusOK, gin.H{
			"status":           "OK",
			"connectedDevices": devices,
			"currentFile":      current,
		})
	}
}
