//go:build sdl
// +build sdl

package display

import (
	"image"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"

	"cvwidgets/config"
	"cvwidgets/widgets"
)

func init() {
	log.Info("running in SDL mode")
}

// SDLWindow streams painted frames into an RGBA texture. All SDL calls go
// through sdl.Do.
type SDLWindow struct {
	*sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	font     *ttf.Font

	width, height int
	texW, texH    int
}

func NewSDLWindow(title string, width, height int) (*SDLWindow, error) {
	s := &SDLWindow{width: width, height: height}
	var err error
	sdl.Do(func() {
		if err = sdl.Init(sdl.INIT_VIDEO); err != nil {
			err = errors.Wrap(err, "init sdl")
			return
		}
		if err = ttf.Init(); err != nil {
			err = errors.Wrap(err, "init ttf")
			return
		}
		s.Window, err = sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
			int32(width), int32(height), sdl.WINDOW_RESIZABLE|sdl.WINDOW_SHOWN)
		if err != nil {
			err = errors.Wrap(err, "create window")
			return
		}

		// Create renderer
		s.renderer, err = sdl.CreateRenderer(s.Window, -1, sdl.RENDERER_ACCELERATED)
		if err != nil {
			err = errors.Wrap(err, "create renderer")
			return
		}
		if fontPath := config.GlobalConfig.FontPath; fontPath != "" {
			if s.font, err = ttf.OpenFont(fontPath, 18); err != nil {
				log.Errorf("Failed to open font %s: %v", fontPath, err)
				s.font, err = nil, nil
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SDLWindow) GetType() string {
	return "sdl"
}

func (s *SDLWindow) Size() image.Point {
	return image.Pt(s.width, s.height)
}

// ensureTexture recreates the texture when the frame size changes.
func (s *SDLWindow) ensureTexture(w, h int) error {
	if s.texture != nil && s.texW == w && s.texH == h {
		return nil
	}
	if s.texture != nil {
		s.texture.Destroy()
	}
	var err error
	s.texture, err = s.renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, int32(w), int32(h))
	if err != nil {
		s.texture = nil
		return errors.Wrap(err, "create texture")
	}
	s.texW, s.texH = w, h
	return nil
}

func (s *SDLWindow) Show(img *image.RGBA, osd string) error {
	var err error
	sdl.Do(func() {
		size := img.Bounds().Size()
		if err = s.ensureTexture(size.X, size.Y); err != nil {
			return
		}
		var pixels []byte
		var pitch int
		if pixels, pitch, err = s.texture.Lock(nil); err != nil {
			err = errors.Wrap(err, "lock texture")
			return
		}
		row := size.X * 4
		for y := 0; y < size.Y; y++ {
			copy(pixels[y*pitch:y*pitch+row], img.Pix[y*img.Stride:y*img.Stride+row])
		}
		s.texture.Unlock()

		// Clear renderer
		if err = s.renderer.Clear(); err != nil {
			err = errors.Wrap(err, "clear renderer")
			return
		}
		if err = s.renderer.Copy(s.texture, nil, nil); err != nil {
			err = errors.Wrap(err, "copy texture")
			return
		}
		if osd != "" && s.font != nil {
			s.drawText(osd, image.Pt(10, 10))
		}

		// Present screen
		s.renderer.Present()
	})
	return err
}

func (s *SDLWindow) drawText(input string, point image.Point) {
	textSurface, err := s.font.RenderUTF8Blended(input, sdl.Color{R: 0, G: 255, B: 0, A: 255})
	if err != nil {
		return
	}
	defer textSurface.Free()

	textTexture, err := s.renderer.CreateTextureFromSurface(textSurface)
	if err != nil {
		log.Errorf("Failed to create texture from surface: %v", err)
		return
	}
	defer textTexture.Destroy()

	textRect := &sdl.Rect{X: int32(point.X), Y: int32(point.Y), W: textSurface.W, H: textSurface.H}
	s.renderer.Copy(textTexture, nil, textRect)
}

func mouseButton(b uint8) widgets.MouseButton {
	switch b {
	case sdl.BUTTON_LEFT:
		return widgets.LeftButton
	case sdl.BUTTON_RIGHT:
		return widgets.RightButton
	case sdl.BUTTON_MIDDLE:
		return widgets.MiddleButton
	default:
		return widgets.NoButton
	}
}

func (s *SDLWindow) PollEvents() []Event {
	var events []Event
	sdl.Do(func() {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				events = append(events, Event{Type: EventQuit})
			case *sdl.MouseButtonEvent:
				t := widgets.MousePress
				if e.Type == sdl.MOUSEBUTTONUP {
					t = widgets.MouseRelease
				}
				events = append(events, Event{Type: EventMouse, Mouse: widgets.MouseEvent{
					Type:   t,
					Button: mouseButton(e.Button),
					Pos:    image.Pt(int(e.X), int(e.Y)),
				}})
			case *sdl.MouseMotionEvent:
				events = append(events, Event{Type: EventMouse, Mouse: widgets.MouseEvent{
					Type: widgets.MouseMove,
					Pos:  image.Pt(int(e.X), int(e.Y)),
				}})
			case *sdl.KeyboardEvent:
				if e.Type != sdl.KEYDOWN {
					continue
				}
				switch e.Keysym.Sym {
				case sdl.K_SPACE:
					events = append(events, Event{Type: EventKey, Key: KeyPlayPause})
				case sdl.K_s:
					events = append(events, Event{Type: EventKey, Key: KeyStop})
				case sdl.K_q, sdl.K_ESCAPE:
					events = append(events, Event{Type: EventKey, Key: KeyQuit})
				}
			case *sdl.WindowEvent:
				// 窗口大小变化事件
				if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
					w, h := s.Window.GetSize()
					s.width, s.height = int(w), int(h)
					events = append(events, Event{Type: EventResize, Size: image.Pt(int(w), int(h))})
				}
			}
		}
	})
	return events
}

func (s *SDLWindow) Close() error {
	var err error
	sdl.Do(func() {
		if s.font != nil {
			s.font.Close()
		}
		if s.texture != nil {
			s.texture.Destroy()
		}
		s.renderer.Destroy()
		err = s.Window.Destroy()
		ttf.Quit()
	})
	s.Window = nil
	return err
}

// NewWindow opens the window of the current build.
func NewWindow(title string, width, height int) (Window, error) {
	return NewSDLWindow(title, width, height)
}

// Main runs fn with the SDL main thread loop and quits SDL afterwards.
func Main(fn func()) {
	sdl.Main(fn)
	sdl.Quit()
}
