package graph

import "time"

// Export converts the subtree rooted at n into plain maps and slices,
// suitable for JSON encoding. Empty fields are omitted.
func Export(n *Node) map[string]any {
	if n == nil {
		return nil
	}
	m := map[string]any{
		"key":        n.Key,
		"clickable":  n.Clickable,
		"httpMethod": n.HTTPMethod,
	}
	setString(m, "title", n.Title)
	setString(m, "description", n.Description)
	setString(m, "url", n.URL)
	setString(m, "imageUrl", n.ImageURL)
	setString(m, "targetFrame", n.TargetFrame)
	setString(m, "resourceKey", n.ResourceKey)
	setString(m, "visibilityProvider", n.VisibilityProvider)
	if n.ChangeFrequency != FrequencyUndefined {
		m["changeFrequency"] = n.ChangeFrequency.String()
	}
	if n.UpdatePriority != PriorityUndefined {
		m["updatePriority"] = n.UpdatePriority.String()
	}
	if !n.LastModified.IsZero() {
		m["lastModifiedDate"] = n.LastModified.Format(time.RFC3339)
	}
	if len(n.Roles) > 0 {
		roles := make([]any, len(n.Roles))
		for i, r := range n.Roles {
			roles[i] = r
		}
		m["roles"] = roles
	}
	if len(n.Attributes) > 0 {
		attrs := make(map[string]any, len(n.Attributes))
		for k, v := range n.Attributes {
			attrs[k] = v
		}
		m["attributes"] = attrs
	}
	if len(n.ResourceKeys) > 0 {
		refs := make(map[string]any, len(n.ResourceKeys))
		for attr, ref := range n.ResourceKeys {
			refs[attr] = map[string]any{"class": ref.Class, "key": ref.Key}
		}
		m["resourceKeys"] = refs
	}
	if r := n.Route; r != nil {
		route := map[string]any{}
		setString(route, "name", r.Name)
		setString(route, "urlResolver", r.URLResolver)
		values := make(map[string]any, len(r.Values))
		for k, v := range r.Values {
			values[k] = v
		}
		route["values"] = values
		if len(r.Preserved) > 0 {
			p := make([]any, len(r.Preserved))
			for i, s := range r.Preserved {
				p[i] = s
			}
			route["preserved"] = p
		}
		m["route"] = route
	}
	if a := n.Action; a != nil {
		m["action"] = map[string]any{
			"area":       a.Area,
			"controller": a.Controller,
			"action":     a.Action,
		}
	}
	if len(n.Children) > 0 {
		children := make([]any, len(n.Children))
		for i, c := range n.Children {
			children[i] = Export(c)
		}
		m["children"] = children
	}
	return m
}

func setString(m map[string]any, k, v string) {
	if v != "" {
		m[k] = v
	}
}
