package nova

var NewSynthesizer = newSynthesizer
