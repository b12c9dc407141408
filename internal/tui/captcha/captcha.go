// ABOUTME: Renders captcha data URIs as terminal half-block art
// ABOUTME: Scales the decoded image and packs two pixel rows into each text row

package captcha

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// ErrNotImage is returned for values that are not base64 image data URIs
var ErrNotImage = errors.New("captcha is not an image data URI")

// Decode parses a data:image/...;base64, URI
func Decode(uri string) (image.Image, error) {
	idx := strings.Index(uri, "base64,")
	if !strings.HasPrefix(uri, "data:image/") || idx < 0 {
		return nil, ErrNotImage
	}
	raw, err := base64.StdEncoding.DecodeString(uri[idx+len("base64,"):])
	if err != nil {
		return nil, fmt.Errorf("decode captcha payload: %w", err)
	}
	img, _, err := image.Decode(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode captcha image: %w", err)
	}
	return img, nil
}

// Scale draws img over a white background at cols x rows*2 pixels
func Scale(img image.Image, cols, rows int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Render returns the image as rows lines of cols half-block cells
func Render(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	px := Scale(img, cols, rows)

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := hex(px.RGBAAt(x, y*2))
			bottom := hex(px.RGBAAt(x, y*2+1))
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render("▀"))
		}
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// RenderURI decodes and renders in one step
func RenderURI(uri string, cols, rows int) (string, error) {
	img, err := Decode(uri)
	if err != nil {
		return "", err
	}
	return Render(img, cols, rows), nil
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
