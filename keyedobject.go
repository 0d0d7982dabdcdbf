package superq

// KeyedObject is implemented by a user object that wants to carry its own
// routing key when passed to Collection.Delete or Datastore.ElemUpdate,
// without that key being a keyCol struct field. It is the Go equivalent of
// superq.py's dynamic `_superqelemKey` attribute, set by `__key_user_obj`
// on any object handed back from a keyed lookup or Demarshal.
type KeyedObject interface {
	SetSuperqElemKey(key string)
	SuperqElemKey() string
}
