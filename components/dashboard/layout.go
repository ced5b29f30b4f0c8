package dashboard

// applyOrderOverride puts the listed widget IDs first, keeping the rest in store order.
func applyOrderOverride(widgets []WidgetInstance, order []string) []WidgetInstance {
	if len(order) == 0 {
		return widgets
	}
	index := make(map[string]WidgetInstance, len(widgets))
	for _, w := range widgets {
		index[w.ID] = w
	}
	result := make([]WidgetInstance, 0, len(widgets))
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if w, ok := index[id]; ok {
			if _, dup := seen[id]; dup {
				continue
			}
			result = append(result, w)
			seen[id] = struct{}{}
		}
	}
	for _, w := range widgets {
		if _, ok := seen[w.ID]; !ok {
			result = append(result, w)
		}
	}
	return result
}

func applyHiddenFilter(widgets []WidgetInstance, hidden map[string]bool) []WidgetInstance {
	if len(hidden) == 0 {
		return widgets
	}
	out := widgets[:0:0]
	for _, w := range widgets {
		if hidden[w.ID] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// applyTabOrder reorders tab codes; unknown codes are ignored and unlisted tabs keep their place at the end.
func applyTabOrder(codes, order []string) []string {
	if len(order) == 0 {
		return codes
	}
	known := make(map[string]bool, len(codes))
	for _, code := range codes {
		known[code] = true
	}
	out := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range order {
		if known[code] && !seen[code] {
			out = append(out, code)
			seen[code] = true
		}
	}
	for _, code := range codes {
		if !seen[code] {
			out = append(out, code)
		}
	}
	return out
}
