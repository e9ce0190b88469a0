package builder

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// The Android manifest produced by the platform bootstrap lacks the
// permissions a network-backed web app needs. PatchManifest inserts
// them through the XML structure rather than string splicing, and only
// inserts what is absent, so re-running it is a no-op.

var requiredPermissions = []string{
	"android.permission.INTERNET",
	"android.permission.ACCESS_NETWORK_STATE",
}

const cleartextAttr = "usesCleartextTraffic"

// PatchManifest ensures the manifest at path declares the required
// permissions and allows cleartext traffic. The file is rewritten only
// when something was missing.
func PatchManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	patched, changed, err := patchManifestXML(data)
	if err != nil {
		return fmt.Errorf("patching manifest: %w", err)
	}
	if !changed {
		return nil
	}
	if err := os.WriteFile(path, patched, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func patchManifestXML(data []byte) ([]byte, bool, error) {
	havePermissions, haveCleartext, err := scanManifest(data)
	if err != nil {
		return nil, false, err
	}

	var missing []string
	for _, perm := range requiredPermissions {
		if !havePermissions[perm] {
			missing = append(missing, perm)
		}
	}
	if len(missing) == 0 && haveCleartext {
		return data, false, nil
	}

	var out bytes.Buffer
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "manifest" && t.Name.Space == "":
				writeStartElement(&out, t, nil)
				for _, perm := range missing {
					fmt.Fprintf(&out, "\n    <uses-permission android:name=%q/>", perm)
				}
			case t.Name.Local == "application" && t.Name.Space == "" && !haveCleartext:
				writeStartElement(&out, t, []xml.Attr{{
					Name:  xml.Name{Space: "android", Local: cleartextAttr},
					Value: "true",
				}})
			default:
				writeStartElement(&out, t, nil)
			}
		case xml.EndElement:
			fmt.Fprintf(&out, "</%s>", rawName(t.Name))
		case xml.CharData:
			out.WriteString(textEscaper.Replace(string(t)))
		case xml.Comment:
			fmt.Fprintf(&out, "<!--%s-->", string(t))
		case xml.ProcInst:
			fmt.Fprintf(&out, "<?%s %s?>", t.Target, string(t.Inst))
		case xml.Directive:
			fmt.Fprintf(&out, "<!%s>", string(t))
		}
	}
	return out.Bytes(), true, nil
}

// scanManifest reports the declared permission names and whether the
// application element already carries the cleartext flag.
func scanManifest(data []byte) (map[string]bool, bool, error) {
	permissions := make(map[string]bool)
	haveCleartext := false
	sawManifest := false

	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "manifest":
			sawManifest = true
		case "uses-permission":
			for _, attr := range start.Attr {
				if attr.Name.Space == "android" && attr.Name.Local == "name" {
					permissions[attr.Value] = true
				}
			}
		case "application":
			for _, attr := range start.Attr {
				if attr.Name.Space == "android" && attr.Name.Local == cleartextAttr {
					haveCleartext = true
				}
			}
		}
	}
	if !sawManifest {
		return nil, false, errors.New("no manifest root element")
	}
	return permissions, haveCleartext, nil
}

func writeStartElement(w *bytes.Buffer, start xml.StartElement, extra []xml.Attr) {
	w.WriteByte('<')
	w.WriteString(rawName(start.Name))
	for _, attr := range append(start.Attr, extra...) {
		fmt.Fprintf(w, " %s=\"%s\"", rawName(attr.Name), escapeAttr(attr.Value))
	}
	w.WriteByte('>')
}

// rawName reassembles a prefixed name; RawToken leaves the namespace
// prefix in Space without resolving it.
func rawName(n xml.Name) string {
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}

// textEscaper keeps indentation readable; xml.EscapeText would turn
// every newline into a character entity.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeAttr(v string) string {
	return attrEscaper.Replace(v)
}
