package linalg

// Mat3 is a row-major 3×3 matrix.
type Mat3 [9]float64

func Mat3Diag(a, b, c float64) Mat3 {
	return Mat3{
		a, 0, 0,
		0, b, 0,
		0, 0, c,
	}
}

func (m Mat3) At(i, j int) float64 {
	return m[i*3+j]
}

func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Diag returns the diagonal entries.
func (m Mat3) Diag() Vec3 {
	return Vec3{m[0], m[4], m[8]}
}
