package components

// String returns the display name for a Phase.
func (p Phase) String() string {
	names := PhaseNames()
	if p >= 0 && int(p) < len(names) {
		return names[p]
	}
	return "None"
}

// PhaseNames returns the display names for all phases.
// The order matches the Phase constants.
func PhaseNames() []string {
	return []string{"G0", "G1", "S", "G2", "M"}
}

// PhaseCount returns the number of live phases.
func PhaseCount() int {
	return len(PhaseNames())
}

// PhaseColors returns the RGB display colour per phase, indexed like PhaseNames.
func PhaseColors() []uint32 {
	return []uint32{
		0x858585, // G0 gray
		0x66ccff, // G1 blue
		0xffcc66, // S yellow
		0x66ff66, // G2 green
		0xff6699, // M pink
	}
}

// GeneNames returns the channel labels, indexed like Expression.
func GeneNames() []string {
	return []string{
		"ORC1", "CCNE1", "CCNE2", "MCM6", "WEE1", "CDK1",
		"CCNF", "NUSAP1", "AURKA", "CCNA2", "CCNB2",
	}
}

// ShapeNames returns the config names for all tool shapes.
// The order matches the Shape constants.
func ShapeNames() []string {
	return []string{"circle", "square", "triangle", "line"}
}

// String returns the config name for a Shape.
func (s Shape) String() string {
	if s.Valid() {
		return ShapeNames()[s]
	}
	return "unknown"
}
