package web

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

const flashCookie = "studybud_flash"

type Flash struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// addFlash queues a notice for the next rendered page.
func (s *Site) addFlash(c *gin.Context, level, text string) {
	flashes := pendingFlashes(c)
	flashes = append(flashes, Flash{Level: level, Text: text})
	c.Set(flashCookie, flashes)

	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(raw), 300, "/", "", s.secure, true)
}

func (s *Site) success(c *gin.Context, text string) {
	s.addFlash(c, "success", text)
}

// takeFlashes returns the pending notices once and clears the cookie.
func takeFlashes(c *gin.Context) []Flash {
	flashes := pendingFlashes(c)
	if _, err := c.Cookie(flashCookie); err == nil {
		c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	}
	c.Set(flashCookie, []Flash(nil))
	return flashes
}

func pendingFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(flashCookie); ok {
		flashes, _ := v.([]Flash)
		return flashes
	}
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(decoded, &flashes); err != nil {
		return nil
	}
	return flashes
}
