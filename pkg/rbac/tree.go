package rbac

// BuildTree assembles flat menu records into a forest. Roots are the records
// without a parent; children keep their input order. Records whose parent is
// missing, and records caught in a parent cycle, are unreachable from any
// root and are left out. The input is not modified.
func BuildTree(flat []*Menu) []*Menu {
	nodes := make([]*Menu, len(flat))
	children := make(map[int64][]*Menu, len(flat))
	var roots []*Menu

	for i, m := range flat {
		node := *m
		node.Children = nil
		nodes[i] = &node
	}
	for _, node := range nodes {
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		children[*node.ParentID] = append(children[*node.ParentID], node)
	}

	// Each id is attached at most once, so duplicated ids cannot loop.
	attached := make(map[int64]bool, len(nodes))
	var attach func(node *Menu)
	attach = func(node *Menu) {
		if attached[node.ID] {
			return
		}
		attached[node.ID] = true
		for _, child := range children[node.ID] {
			if attached[child.ID] {
				continue
			}
			node.Children = append(node.Children, child)
			attach(child)
		}
	}

	forest := make([]*Menu, 0, len(roots))
	for _, root := range roots {
		if attached[root.ID] {
			continue
		}
		attach(root)
		forest = append(forest, root)
	}
	return forest
}

// OrphanMenus returns the records BuildTree drops: those whose ancestry does
// not end at a root.
func OrphanMenus(flat []*Menu) []*Menu {
	reachable := make(map[int64]bool, len(flat))
	var mark func(nodes []*Menu)
	mark = func(nodes []*Menu) {
		for _, n := range nodes {
			reachable[n.ID] = true
			mark(n.Children)
		}
	}
	mark(BuildTree(flat))

	var orphans []*Menu
	for _, m := range flat {
		if !reachable[m.ID] {
			orphans = append(orphans, m)
		}
	}
	return orphans
}

// FlattenTree lists a forest depth-first with Children cleared
func FlattenTree(forest []*Menu) []*Menu {
	var out []*Menu
	var walk func(nodes []*Menu)
	walk = func(nodes []*Menu) {
		for _, n := range nodes {
			flat := *n
			flat.Children = nil
			out = append(out, &flat)
			walk(n.Children)
		}
	}
	walk(forest)
	return out
}
