// Package audioio reads and writes audio files for the filter bank commands.
//
// WAV and AIFF are handled natively through go-audio, MP3 through go-mp3 and
// Ogg Vorbis through oggvorbis. AU and WMA, and every encoded output format,
// go through an external ffmpeg binary (see Transcoder).
//
// Samples are float64 in [-1, 1], one slice per channel.
//
//	sig, err := audioio.Read("speech.mp3", audioio.Options{Mono: true, Start: 1, End: 3})
//	if err != nil {
//		return err
//	}
//	err = audioio.Write("out.wav", sig, 16, audioio.FormatWAV)
//
// The package also carries the helpers used when comparing a reconstruction
// with its source: Clip, Envelope and NormaliseEnergy.
package audioio
