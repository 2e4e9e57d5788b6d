package viewer

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/splatpack/pkg/serialize"
	"github.com/Faultbox/splatpack/pkg/sink"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// Package errors.
var (
	ErrUnknownPackageType = errors.New("unknown package type")
	ErrInvalidAssets      = errors.New("invalid viewer assets")
)

// PackageType selects the package layout.
type PackageType int

// Package layouts.
const (
	// PackageHTML is a single document with every asset inlined.
	PackageHTML PackageType = iota
	// PackageZIP is an archive holding the assets next to the scene.
	PackageZIP
)

// String returns the name accepted by ParsePackageType.
func (t PackageType) String() string {
	switch t {
	case PackageHTML:
		return "html"
	case PackageZIP:
		return "zip"
	default:
		return fmt.Sprintf("PackageType(%d)", int(t))
	}
}

// Extension returns the conventional file suffix.
func (t PackageType) Extension() string {
	return "." + t.String()
}

// ParsePackageType parses a package type name.
func ParsePackageType(s string) (PackageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return PackageHTML, nil
	case "zip":
		return PackageZIP, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPackageType, s)
	}
}

// Package describes one viewer package export.
type Package struct {
	Type     PackageType
	Settings Settings
	Assets   Assets
	// Modified stamps the archive entries. Zero uses the current time.
	Modified time.Time
}

// Tags the HTML package replaces with inline content.
const (
	styleTag  = `<link rel="stylesheet" href="./index.css">`
	scriptTag = `<script type="module" src="./index.js"></script>`
)

// Write exports cols as a compressed PLY and wraps it with the package
// assets, streaming the result to s.
func Write(s sink.Sink, p Package, cols []splat.Collection, opts serialize.Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if p.Type != PackageHTML && p.Type != PackageZIP {
		return fmt.Errorf("%w: %s", ErrUnknownPackageType, p.Type)
	}
	if err := p.Settings.Validate(); err != nil {
		return err
	}
	if p.Settings.AnimTracks == nil {
		p.Settings.AnimTracks = []AnimTrack{}
	}

	var scene sink.Buffer
	if err := serialize.WriteCompressedPLY(&scene, cols, opts); err != nil {
		return fmt.Errorf("compressing scene: %w", err)
	}
	if scene.Writes() == 0 {
		log.Warn("nothing to package", zap.Stringer("type", p.Type))
		return nil
	}

	w := sink.NewBufferedWriter(s, opts.BlockSize)
	var err error
	switch p.Type {
	case PackageHTML:
		err = writeHTML(w, p, scene.Bytes())
	case PackageZIP:
		err = writeZIP(w, p, scene.Bytes())
	}
	if err != nil {
		return err
	}

	if err := w.Flush(true); err != nil {
		return fmt.Errorf("flushing package: %w", err)
	}

	log.Debug("exported viewer package",
		zap.Stringer("type", p.Type),
		zap.Int("scene_bytes", len(scene.Bytes())),
		zap.Int64("bytes", w.Written()),
	)
	return nil
}

// substitution replaces every occurrence of needle with the output of
// write. A required needle must occur at least once.
type substitution struct {
	needle   []byte
	write    func(w io.Writer) error
	required bool
}

func literal(data []byte) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}
}

func chain(parts ...func(io.Writer) error) func(io.Writer) error {
	return func(w io.Writer) error {
		for _, part := range parts {
			if err := part(w); err != nil {
				return err
			}
		}
		return nil
	}
}

// dataURI writes data as a base64 data URI.
func dataURI(mime string, data []byte) func(io.Writer) error {
	return func(w io.Writer) error {
		if _, err := io.WriteString(w, "data:"+mime+";base64,"); err != nil {
			return err
		}
		enc := base64.NewEncoder(base64.StdEncoding, w)
		if _, err := enc.Write(data); err != nil {
			return err
		}
		return enc.Close()
	}
}

// expand copies text to w, replacing needles as it goes.
func expand(w io.Writer, text []byte, subs []substitution) error {
	found := make([]bool, len(subs))
	for len(text) > 0 {
		at, which := -1, -1
		for i, sub := range subs {
			if j := bytes.Index(text, sub.needle); j >= 0 && (at < 0 || j < at) {
				at, which = j, i
			}
		}
		if which < 0 {
			break
		}
		if _, err := w.Write(text[:at]); err != nil {
			return err
		}
		if err := subs[which].write(w); err != nil {
			return err
		}
		found[which] = true
		text = text[at+len(subs[which].needle):]
	}

	for i, sub := range subs {
		if sub.required && !found[i] {
			return fmt.Errorf("%w: %q not found", ErrInvalidAssets, sub.needle)
		}
	}
	_, err := w.Write(text)
	return err
}

// writeHTML writes a single document with the stylesheet and script
// inlined and the settings and scene URLs replaced by data URIs.
func writeHTML(w io.Writer, p Package, scene []byte) error {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	urls := []substitution{
		{needle: []byte("./" + SettingsFile), write: dataURI("application/json", settings)},
		{needle: []byte("./" + SceneFile), write: dataURI("application/octet-stream", scene)},
	}

	script := chain(
		literal([]byte(`<script type="module">`)),
		func(w io.Writer) error { return expand(w, p.Assets.JS, urls) },
		literal([]byte("</script>")),
	)
	style := chain(
		literal([]byte("<style>")),
		literal(p.Assets.CSS),
		literal([]byte("</style>")),
	)

	err = expand(w, p.Assets.HTML, []substitution{
		{needle: []byte(styleTag), write: style, required: true},
		{needle: []byte(scriptTag), write: script, required: true},
	})
	if err != nil {
		return fmt.Errorf("writing html package: %w", err)
	}
	return nil
}

// writeZIP writes an archive with the assets, settings and scene.
func writeZIP(w io.Writer, p Package, scene []byte) error {
	settings, err := json.MarshalIndent(p.Settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	modified := p.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	zw := zip.NewWriter(w)
	entries := []struct {
		name string
		data []byte
	}{
		{HTMLFile, p.Assets.HTML},
		{CSSFile, p.Assets.CSS},
		{JSFile, p.Assets.JS},
		{SettingsFile, settings},
		{SceneFile, scene},
	}
	for _, e := range entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("creating %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return fmt.Errorf("writing %s: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing zip: %w", err)
	}
	return nil
}
