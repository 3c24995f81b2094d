package entity

type Identity string

const NoIdentity Identity = ""

func (i Identity) IsZero() bool {
	return i == NoIdentity
}

func (i Identity) String() string {
	return string(i)
}

func (i Identity) Ptr() *Identity {
	return &i
}
