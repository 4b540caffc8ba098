package table

// OneHotOptions configures OneHotEncode.
type OneHotOptions struct {
	// DropFirst omits the indicator of the first category in sorted order.
	DropFirst bool
	// Prefix names indicator columns Prefix+Separator+category. It defaults
	// to the encoded column's name.
	Prefix string
	// Separator defaults to "_".
	Separator string
}

// OneHotEncode replaces each categorical column with Int 0/1 indicator
// columns, one per distinct category in natural sorted order, appended at
// the end of the table. A missing category encodes as all zeros. A name
// already in use, e.g. from Int(3) and Text("3"), gets a _2, _3, ... suffix.
func OneHotEncode(t *Table, cols []string, opt OneHotOptions) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	sep := opt.Separator
	if sep == "" {
		sep = "_"
	}
	out := t
	for _, name := range cols {
		src, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		seen := map[key]bool{}
		var cats []Value
		for _, v := range src {
			if v.IsMissing() || seen[v.key()] {
				continue
			}
			seen[v.key()] = true
			cats = append(cats, v)
		}
		sortValues(cats)
		if opt.DropFirst && len(cats) > 0 {
			cats = cats[1:]
		}

		prefix := opt.Prefix
		if prefix == "" {
			prefix = name
		}
		if out, err = out.Drop(name); err != nil {
			return nil, err
		}
		for _, cat := range cats {
			ind := make([]Value, len(src))
			k := cat.key()
			for r, v := range src {
				if !v.IsMissing() && v.key() == k {
					ind[r] = Int(1)
				} else {
					ind[r] = Int(0)
				}
			}
			col := uniqueName(prefix+sep+cat.String(), out.Has)
			if out, err = out.WithColumn(col, ind); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
