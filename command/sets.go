package command

import "context"

// Sets exposes spec.md §6.1's set family: SADD, SREM, SISMEMBER, SCARD,
// SRANDMEMBER, SPOP, SMEMBERS.
type Sets struct {
	ex *Executor
}

// NewSets builds a Sets façade over ex.
func NewSets(ex *Executor) *Sets { return &Sets{ex: ex} }

// SAdd adds members to key's set, returning the count actually added
// (duplicates of existing members don't count).
func (s *Sets) SAdd(ctx context.Context, key string, members ...[]byte) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]string, 0, len(members)+2)
	args = append(args, "SADD", key)
	for _, m := range members {
		args = append(args, string(m))
	}
	data, err := s.ex.call(ctx, "SADD", key, false, args...)
	if err != nil {
		return 0, err
	}
	return asInt("SADD", data)
}

// SRem removes members from key's set, returning the count actually
// removed.
func (s *Sets) SRem(ctx context.Context, key string, members ...[]byte) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]string, 0, len(members)+2)
	args = append(args, "SREM", key)
	for _, m := range members {
		args = append(args, string(m))
	}
	data, err := s.ex.call(ctx, "SREM", key, false, args...)
	if err != nil {
		return 0, err
	}
	return asInt("SREM", data)
}

// SIsMember reports whether member is in key's set.
func (s *Sets) SIsMember(ctx context.Context, key string, member []byte) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if member == nil {
		return false, invalidArg("member must not be nil")
	}
	data, err := s.ex.call(ctx, "SISMEMBER", key, true, "SISMEMBER", key, string(member))
	if err != nil {
		return false, err
	}
	return asBool("SISMEMBER", data)
}

// SCard returns the number of members in key's set.
func (s *Sets) SCard(ctx context.Context, key string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	data, err := s.ex.call(ctx, "SCARD", key, true, "SCARD", key)
	if err != nil {
		return 0, err
	}
	return asInt("SCARD", data)
}

// SRandMember returns a random member of key's set without removing it,
// or false if the set is empty or absent.
func (s *Sets) SRandMember(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	data, err := s.ex.call(ctx, "SRANDMEMBER", key, true, "SRANDMEMBER", key)
	if err != nil {
		return nil, false, err
	}
	return asBulk("SRANDMEMBER", data)
}

// SPop removes and returns a random member of key's set, or false if
// the set is empty or absent.
func (s *Sets) SPop(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	data, err := s.ex.call(ctx, "SPOP", key, false, "SPOP", key)
	if err != nil {
		return nil, false, err
	}
	return asBulk("SPOP", data)
}

// SMembers returns every member of key's set, in unspecified order.
func (s *Sets) SMembers(ctx context.Context, key string) ([][]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := s.ex.call(ctx, "SMEMBERS", key, true, "SMEMBERS", key)
	if err != nil {
		return nil, err
	}
	return asBulkArray("SMEMBERS", data)
}
