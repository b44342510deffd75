package models

// SubscriptionSet holds the streaming provider ids a user pays for.
type SubscriptionSet []int

// Contains reports whether id is in the set.
func (s SubscriptionSet) Contains(id int) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle adds id when absent and removes it when present.
func (s SubscriptionSet) Toggle(id int) SubscriptionSet {
	for i, v := range s {
		if v == id {
			out := make(SubscriptionSet, 0, len(s)-1)
			out = append(out, s[:i]...)
			return append(out, s[i+1:]...)
		}
	}
	out := make(SubscriptionSet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, id)
}

// StreamingService is a provider the subscription picker offers.
type StreamingService struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// StreamingServices lists the selectable providers.
func StreamingServices() []StreamingService {
	return []StreamingService{
		{ID: 528, Name: "AMC+", Logo: "/l4g1BT502p1H42a3j1s2lG9nK.jpg"},
		{ID: 9, Name: "Amazon Prime", Logo: "/68MNdJkIZ1hqhGPY3e4L2MSuD1I.jpg"},
		{ID: 2, Name: "Apple TV+", Logo: "/3oTfWy5TAmY5822b53eKwL1xS2z.jpg"},
		{ID: 26, Name: "Criterion Channel", Logo: "/hFCiMC5st22wV3weHl15qj7N0v1.jpg"},
		{ID: 337, Name: "Disney+", Logo: "/7rwgEs15tFwyR9NPQ5vpzxTj1Ae.jpg"},
		{ID: 257, Name: "FuboTV", Logo: "/fVjXoJkU1H_2p7iN1b1g2p1fOUl.jpg"},
		{ID: 15, Name: "Hulu", Logo: "/uJ2w33J32O2h05Iu1CjC7mGn4T.jpg"},
		{ID: 1899, Name: "Max", Logo: "/2a0aJqjuiD5ytdcZz2uISeidU8C.jpg"},
		{ID: 8, Name: "Netflix", Logo: "/ar4pMQERJSYppG3Qfo9ltM4S2sM.jpg"},
		{ID: 531, Name: "Paramount+", Logo: "/zBv2r2k2sV3E9s08i0lBq4vIZy.jpg"},
		{ID: 387, Name: "Peacock", Logo: "/pZGE52Lz17c38gNT7P7y0B0iC4.jpg"},
		{ID: 37, Name: "Showtime", Logo: "/oF4enqrXXsFRU3aG2I32vpsbQv.jpg"},
		{ID: 43, Name: "Starz", Logo: "/crFbxgG3JSddT2DAorfOqdfE5s9.jpg"},
	}
}
