// Package pack manages Packs: user curated, ordered collections of Twitch
// channels with a visibility setting and a share link.
//
// Every read and write goes through Authorize, the single place that decides
// what an actor may do with a pack. Feature limits (pack count, streams per
// pack, private packs, VOD offsets) come from the owner's tier as reported by
// the premium status cache.
package pack
