package dataaccess

// Toggle flips the presence of an entity behind a get-or-create operation:
// absent entities are created, present ones are deleted. The returned bool is
// whether the entity is present after the flip. Callers must tolerate a
// "removed" result for what looked like an "add" request.
func Toggle[E any](s *Session, get func(*Session) (bool, E, error)) (bool, error) {
	created, entity, err := get(s)
	if err != nil {
		return false, err
	}
	if created {
		return true, nil
	}
	if err := s.Delete(entity); err != nil {
		return false, err
	}
	return false, nil
}
