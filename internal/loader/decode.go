package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/j-veylop/commission-tally/internal/models"
)

// Decode parses exactly one JSON value from r, keeping object members in
// document order. Numbers keep their literal text.
func Decode(r io.Reader) (models.Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}

	root, err := decodeValue(dec, tok)
	if err != nil {
		return nil, err
	}

	// Only whitespace may follow the root value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, errors.New("extra data after JSON value")
	}

	return root, nil
}

func decodeValue(dec *json.Decoder, tok json.Token) (models.Node, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeSequence(dec)
		default:
			return nil, fmt.Errorf("unexpected %q", rune(v))
		}
	case string:
		return models.String(v), nil
	case json.Number:
		return models.Number(v), nil
	case bool:
		return models.Bool(v), nil
	case nil:
		return models.Null{}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// decodeObject reads members up to the closing brace. A repeated key keeps
// its first position and takes the last value.
func decodeObject(dec *json.Decoder) (models.Node, error) {
	obj := models.Object{}
	index := make(map[string]int)

	for dec.More() {
		tok, err := nextToken(dec)
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}

		tok, err = nextToken(dec)
		if err != nil {
			return nil, err
		}
		val, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}

		if i, dup := index[key]; dup {
			obj[i].Value = val
			continue
		}
		index[key] = len(obj)
		obj = append(obj, models.Member{Key: key, Value: val})
	}

	if _, err := nextToken(dec); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeSequence(dec *json.Decoder) (models.Node, error) {
	seq := models.Sequence{}

	for dec.More() {
		tok, err := nextToken(dec)
		if err != nil {
			return nil, err
		}
		val, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}
		seq = append(seq, val)
	}

	if _, err := nextToken(dec); err != nil {
		return nil, err
	}
	return seq, nil
}

// nextToken reads a token inside a container, where EOF means truncation.
func nextToken(dec *json.Decoder) (json.Token, error) {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}
