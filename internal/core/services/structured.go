package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// parseXMLValue converts an XML document into a structured value.
// The root element becomes the value itself. Attributes and child
// elements become mapping fields, repeated children become a sequence,
// and an element holding only text becomes a string. Text mixed with
// child elements is kept under the empty key.
func parseXMLValue(data []byte) (domain.Value, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return domain.Value{}, errors.New("decoding xml: no root element")
		}
		if err != nil {
			return domain.Value{}, fmt.Errorf("decoding xml: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return xmlElement(dec, start)
		}
	}
}

func xmlElement(dec *xml.Decoder, start xml.StartElement) (domain.Value, error) {
	fields := make(map[string]domain.Value, len(start.Attr))
	for _, attr := range start.Attr {
		fields[attr.Name.Local] = domain.String(attr.Value)
	}
	children := map[string][]domain.Value{}
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return domain.Value{}, fmt.Errorf("decoding xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := xmlElement(dec, t)
			if err != nil {
				return domain.Value{}, err
			}
			children[t.Name.Local] = append(children[t.Name.Local], child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			for name, values := range children {
				if len(values) == 1 {
					fields[name] = values[0]
				} else {
					fields[name] = domain.Sequence(values...)
				}
			}
			s := strings.TrimSpace(text.String())
			if len(fields) == 0 {
				return domain.String(s), nil
			}
			if s != "" {
				fields[""] = domain.String(s)
			}
			return domain.Mapping(fields), nil
		}
	}
}
