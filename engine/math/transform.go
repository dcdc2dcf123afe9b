package math

func TransformCreate() Transform {
	return TransformFromPositionRotationScale(NewVec3Zero(), NewQuatIdentity(), NewVec3One())
}

func TransformFromPosition(position Vec3) Transform {
	return TransformFromPositionRotationScale(position, NewQuatIdentity(), NewVec3One())
}

func TransformFromPositionRotationScale(position Vec3, rotation Quaternion, scale Vec3) Transform {
	t := Transform{Local: NewMat4Identity()}
	t.SetPositionRotationScale(position, rotation, scale)
	return t
}

func (t *Transform) SetPosition(position Vec3) {
	t.Position = position
	t.IsDirty = true
}

func (t *Transform) Translate(translation Vec3) {
	t.Position = t.Position.Add(translation)
	t.IsDirty = true
}

func (t *Transform) SetRotation(rotation Quaternion) {
	t.Rotation = rotation
	t.IsDirty = true
}

func (t *Transform) Rotate(rotation Quaternion) {
	t.Rotation = t.Rotation.Mul(rotation)
	t.IsDirty = true
}

func (t *Transform) SetScale(scale Vec3) {
	t.Scale = scale
	t.IsDirty = true
}

// ScaleIt multiplies the current scale element-wise.
func (t *Transform) ScaleIt(scale Vec3) {
	t.Scale = t.Scale.Mul(scale)
	t.IsDirty = true
}

func (t *Transform) SetPositionRotationScale(position Vec3, rotation Quaternion, scale Vec3) {
	t.Position = position
	t.Rotation = rotation
	t.Scale = scale
	t.IsDirty = true
}

// ScaleAboutParentOrigin uniformly scales the transform around the parent's
// origin: the position is scaled along with the local scale so every point of
// the object moves away from (or toward) the parent origin by factor.
func (t *Transform) ScaleAboutParentOrigin(factor float32) {
	t.Scale = t.Scale.MulScalar(factor)
	t.Position = t.Position.MulScalar(factor)
	t.IsDirty = true
}

// GetLocal returns the local matrix, rebuilding it as scale * rotation *
// translation when the transform is dirty.
func (t *Transform) GetLocal() Mat4 {
	if t == nil {
		return NewMat4Identity()
	}
	if t.IsDirty || t.Local == (Mat4{}) {
		local := NewMat4Scale(t.Scale)
		if !t.Rotation.IsIdentity() {
			local = local.Mul(t.Rotation.ToMat4())
		}
		t.Local = local.Mul(NewMat4Translation(t.Position))
		t.IsDirty = false
	}
	return t.Local
}
