package web

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

const flashCookie = "flash"

const (
	flashSuccess = "success"
	flashWarning = "warning"
	flashError   = "error"
)

// Flash is a one-shot message carried to the next rendered page
// through a short-lived cookie.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func addFlash(c *gin.Context, level, message string) {
	flashes := readFlashes(c)
	flashes = append(flashes, Flash{Level: level, Message: message})

	encoded, err := encodeFlashes(flashes)
	if err != nil {
		return
	}
	c.SetCookie(flashCookie, encoded, 300,
		"/", "", false, true)
}

// takeFlashes returns the pending messages and clears the cookie.
func takeFlashes(c *gin.Context) []Flash {
	flashes := readFlashes(c)
	if len(flashes) > 0 {
		c.SetCookie(flashCookie, "", -1,
			"/", "", false, true)
	}
	return flashes
}

func readFlashes(c *gin.Context) []Flash {
	encoded, err := c.Cookie(flashCookie)
	if err != nil || encoded == "" {
		return nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}

	var flashes []Flash
	if err = json.Unmarshal(decoded, &flashes); err != nil {
		return nil
	}
	return flashes
}

func encodeFlashes(flashes []Flash) (string, error) {
	raw, err := json.Marshal(flashes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
