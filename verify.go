package goadsym

// VerifyPath checks that path resolves without touching the device.
func (c *Client) VerifyPath(path string) error {
	_, err := c.resolve(path)
	return err
}

// VerifyPathAndVariable checks that v could be written to path. Struct
// values are validated field by field, including gaps, overlaps, unknown and
// duplicate fields, even though SetValue itself rejects them.
func (c *Client) VerifyPathAndVariable(path string, v Variable) error {
	t, err := c.resolve(path)
	if err != nil {
		return err
	}
	data, err := c.codec.verifyValue(t.sym, t.dt, v)
	if err != nil {
		return err
	}
	if uint32(len(data)) > t.loc.Size {
		return sizeError(t, len(data))
	}
	return nil
}

// VerifyPathAndString checks that text parses and encodes for path.
func (c *Client) VerifyPathAndString(path, text string) error {
	t, err := c.resolve(path)
	if err != nil {
		return err
	}
	data, err := TextToBytes(text, t.sym, t.dt.Ranges)
	if err != nil {
		return err
	}
	if uint32(len(data)) > t.loc.Size {
		return sizeError(t, len(data))
	}
	return nil
}
