package rules

// BookingText scores visible labels of candidate triggers
var BookingText = Ruleset{
	Keywords("book_now", 0.55, "book now", "book online", "book today", "book your", "book a", "book an", "booknow"),
	Keywords("reserve", 0.5, "reserve", "reserve now", "make a reservation", "reservations", "reserve a table", "reserve your spot"),
	Keywords("tickets", 0.5, "buy tickets", "get tickets", "buy now", "purchase tickets", "book tickets", "tickets"),
	Keywords("availability", 0.45, "check availability", "see availability", "view availability", "check dates", "find a time", "select a date"),
	Keywords("party", 0.4, "book a party", "party booking", "book your party", "plan a party", "book event", "book an event", "private hire"),
	Keywords("book", 0.4, "book", "booking", "bookings"),
	Keywords("schedule", 0.3, "schedule", "appointment", "book appointment"),
	Keywords("enquire", 0.25, "enquire", "enquire now", "inquire", "request a quote", "get a quote"),
	Keywords("packages", 0.2, "view packages", "see packages", "packages", "pricing", "prices"),
}

// NegativeText marks controls that are never booking entry points
var NegativeText = Ruleset{
	Keywords("auth", 1, "log in", "login", "sign in", "sign up", "register", "my account", "logout", "log out", "forgot password"),
	Keywords("share", 1, "share", "tweet", "pin it", "follow us", "like us"),
	Keywords("nav", 0.6, "menu", "close", "cookie", "cookies", "accept all", "reject all", "skip to content", "back to top", "search", "subscribe", "newsletter"),
	Keywords("editorial", 0.5, "read more", "blog", "news", "privacy policy", "terms", "learn more about us", "careers"),
}

// BookingAttributes scores attribute names and values on candidate elements
var BookingAttributes = Ruleset{
	Regexp("booking_attr", 0.3, `(?i)(book|reserv|ticket|checkout|availability|widget|booking|event-?id|product-?id|package)`),
}

// WidgetContext scores the id/class chain of an element's ancestors
var WidgetContext = Ruleset{
	Regexp("booking_container", 0.15, `(?i)(booking|reservation|book-now|booknow|ticket|checkout|availability|widget|calendar|package|pricing)`),
	Regexp("hero_or_cta", 0.05, `(?i)(hero|cta|call-to-action|banner)`),
}

// BookingPath scores the path of an href
var BookingPath = Ruleset{
	Regexp("booking_path", 0.2, `(?i)/(book|booking|bookings|reserve|reservation|reservations|tickets?|checkout|availability|buy|order|party|parties|events?|packages?|pricing)(/|$|\?|-|\.)`),
}

// CrawlPriority marks internal links the crawler should visit early
var CrawlPriority = Ruleset{
	Regexp("booking_link", 1, `(?i)(book|reserv|ticket|party|parties|package|pricing|price|event|function|hire|checkout|availability|experience|voucher|gift|group|corporate)`),
}

// VendorHosts are third-party booking platforms, matched against hostnames
// and script/iframe sources
var VendorHosts = Ruleset{
	Regexp("roller", 0.35, `(?i)roller\.app|rollerdigital|roller\.software`),
	Regexp("bookeo", 0.35, `(?i)bookeo\.com`),
	Regexp("resova", 0.35, `(?i)resova\.(com|io|eu|us)`),
	Regexp("fareharbor", 0.35, `(?i)fareharbor\.com`),
	Regexp("checkfront", 0.35, `(?i)checkfront\.com`),
	Regexp("rezdy", 0.35, `(?i)rezdy\.com`),
	Regexp("xola", 0.35, `(?i)xola\.com`),
	Regexp("peek", 0.35, `(?i)peek\.com|peekpro`),
	Regexp("setmore", 0.35, `(?i)setmore\.com`),
	Regexp("acuity", 0.35, `(?i)acuityscheduling\.com`),
	Regexp("calendly", 0.35, `(?i)calendly\.com`),
	Regexp("simplybook", 0.35, `(?i)simplybook\.(me|it|net)`),
	Regexp("eventbrite", 0.35, `(?i)eventbrite\.`),
	Regexp("ticketmaster", 0.35, `(?i)ticketmaster\.`),
	Regexp("opentable", 0.35, `(?i)opentable\.`),
	Regexp("resy", 0.35, `(?i)resy\.com`),
	Regexp("sevenrooms", 0.35, `(?i)sevenrooms\.com`),
	Regexp("bookwhen", 0.35, `(?i)bookwhen\.com`),
	Regexp("tablein", 0.35, `(?i)tablein\.com`),
	Regexp("square", 0.3, `(?i)squareup\.com/appointments|square\.site`),
}

// NextButtons ranks progression controls; earlier rules are preferred
var NextButtons = Ruleset{
	Regexp("exact_continue", 1, `(?i)^\s*(continue|next|proceed)\s*(→|›|»|>)?\s*$`),
	Keywords("continue_phrase", 0.8, "continue", "next", "proceed", "next step", "continue to", "go to next"),
	Keywords("select_phrase", 0.6, "select", "choose", "add to booking", "add to cart", "book this", "book now", "reserve", "confirm selection", "check availability", "search"),
	Keywords("review_phrase", 0.5, "review booking", "review order", "checkout", "check out", "view basket", "view cart"),
}

// PaymentActions are labels the explorer must never click
var PaymentActions = Ruleset{
	Keywords("pay", 1, "pay", "pay now", "make payment", "submit payment", "confirm and pay", "confirm & pay", "pay securely", "pay deposit", "complete payment"),
	Keywords("order", 1, "place order", "complete purchase", "complete order", "purchase now", "complete booking and pay", "buy now and pay", "authorize payment"),
}

// Payment page signals: card inputs, processor frames/forms and headings
var (
	PaymentFields = Ruleset{
		Regexp("card_field", 0.6, `(?i)(card[\s_-]?number|cc-number|cc-exp|cc-csc|cardnumber|credit[\s_-]?card|debit[\s_-]?card|cvv|cvc|security[\s_-]?code|expiry|expiration|name[\s_-]?on[\s_-]?card)`),
	}
	PaymentProcessors = Ruleset{
		Regexp("processor", 0.5, `(?i)(stripe\.com|braintree|adyen|squareup\.com|paypal\.com|worldpay|checkout\.com|authorize\.net|/payment|/pay(/|$|\?))`),
	}
	PaymentHeadings = Ruleset{
		Keywords("payment_heading", 0.4, "payment", "payment details", "payment information", "billing details", "billing address", "pay now", "card details"),
	}
)

// ConfirmationPage signals a finished booking
var ConfirmationPage = Ruleset{
	Keywords("confirmed", 0.7, "booking confirmed", "reservation confirmed", "thank you for your booking", "thanks for your booking", "your booking is confirmed", "order confirmed", "booking reference", "confirmation number"),
	Keywords("thanks", 0.3, "thank you", "thanks"),
}

// EnquiryForm signals a contact/enquiry form rather than a booking step
var EnquiryForm = Ruleset{
	Keywords("enquiry", 0.5, "enquiry", "enquire", "inquiry", "inquire", "request a quote", "get a quote", "contact us", "send message", "send enquiry", "submit enquiry", "request a callback", "tell us about your event"),
	Regexp("message_field", 0.3, `(?i)(textarea|message|comments|tell us)`),
}

// ReviewPage signals an order summary before payment
var ReviewPage = Ruleset{
	Keywords("summary", 0.5, "order summary", "booking summary", "review your booking", "review your order", "your booking", "basket", "cart", "subtotal", "total due", "amount due"),
}

// AddOnPage signals optional extras
var AddOnPage = Ruleset{
	Keywords("extras", 0.5, "add-ons", "add ons", "addons", "extras", "optional extras", "enhance your", "upgrade your", "would you like to add", "add extras"),
}

// ProductPage signals a package/product chooser
var ProductPage = Ruleset{
	Keywords("choose", 0.4, "choose a package", "select a package", "choose your package", "select your package", "choose an experience", "select an option", "packages", "select ticket", "choose tickets", "ticket type"),
}

// GroupSizePage signals a party-size selector
var GroupSizePage = Ruleset{
	Keywords("guests", 0.4, "number of guests", "how many guests", "guests", "party size", "group size", "number of people", "how many people", "players", "participants", "attendees", "adults", "children", "kids", "jumpers", "bowlers"),
}

// DatePage signals a calendar or date input
var DatePage = Ruleset{
	Keywords("date", 0.4, "select a date", "choose a date", "pick a date", "select date", "choose date", "available dates", "calendar"),
}

// TimePage signals time-slot selection
var TimePage = Ruleset{
	Keywords("time", 0.4, "select a time", "choose a time", "available times", "select time", "time slot", "time slots", "session time", "start time", "arrival time"),
}

// DetailsForm signals the customer-details step
var DetailsForm = Ruleset{
	Keywords("details", 0.4, "your details", "contact details", "customer details", "guest details", "booker details", "personal details", "lead booker", "first name", "last name", "email address", "phone number"),
}

// LargeGroup signals corporate / large-party branches
var LargeGroup = Ruleset{
	Keywords("corporate", 0.5, "corporate", "team building", "company event", "work party", "christmas party", "private hire", "exclusive hire", "venue hire", "buyout", "private event"),
	Regexp("large_group", 0.5, `(?i)(large (groups?|parties|party)|groups? of \d+\s*(\+|or more)|\d+\s*\+\s*(guests|people|players|persons)|more than \d+ (guests|people|players))`),
}

// HighRevenue marks premium or corporate paths
var HighRevenue = Ruleset{
	Keywords("premium", 0, "vip", "premium", "deluxe", "platinum", "exclusive", "private room", "private hire", "exclusive hire", "venue hire", "buyout", "corporate", "team building", "function package"),
}

// Divergence extracts the party size at which a widget changes path.
// The rule name says how to turn the captured number into a size.
var Divergence = Ruleset{
	Regexp("at", 0, `(?i)groups? of (\d+)\s*(?:\+|or more|and (?:over|above|more))`),
	Regexp("at", 0, `(?i)(\d+)\s*\+\s*(?:guests|people|players|persons|attendees|pax)`),
	Regexp("at", 0, `(?i)(\d+) (?:or more|and over|and above) (?:guests|people|players|persons|attendees)`),
	Regexp("above", 0, `(?i)(?:more than|over|larger than|greater than) (\d+) (?:guests|people|players|persons|attendees|pax)`),
	Regexp("above", 0, `(?i)(?:maximum|max\.?|up to) (\d+) (?:guests|people|players|persons) (?:online|per booking)[^.]*(?:enquire|contact|call)`),
}

// AddOnCategories classifies add-ons; first match wins
var AddOnCategories = Ruleset{
	Keywords("food_drink", 0, "food", "drink", "drinks", "pizza", "meal", "menu", "snack", "snacks", "platter", "beverage", "beverages", "cake", "lunch", "dinner", "buffet", "catering", "soft drink", "cocktail", "wine", "beer", "coffee", "juice", "ice cream", "popcorn", "lolly", "lollies", "candy"),
	Keywords("decorations", 0, "decoration", "decorations", "balloon", "balloons", "banner", "theme", "themed", "party bag", "party bags", "table setting", "confetti", "tableware"),
	Keywords("extra_time", 0, "extra time", "additional time", "extra hour", "extra 30", "extra game", "additional game", "extend", "extension", "extra session", "additional hour"),
	Keywords("upgrade", 0, "upgrade", "premium", "vip", "deluxe", "exclusive", "private room", "priority"),
	Keywords("equipment", 0, "equipment", "socks", "grip socks", "shoes", "shoe hire", "helmet", "gear", "locker", "hire"),
	Keywords("service", 0, "host", "hosted", "party host", "photographer", "photo", "photos", "video", "dj", "entertainer", "invitation", "invitations", "gift", "voucher", "certificate", "service"),
}

// InclusionCategories classifies package inclusions; first match wins
var InclusionCategories = Ruleset{
	Keywords("tickets", 0, "ticket", "tickets", "entry", "admission", "pass", "passes", "wristband"),
	Keywords("time", 0, "minutes", "minute", "mins", "hour", "hours", "hr", "hrs", "session", "duration"),
	Keywords("drink", 0, "drink", "drinks", "soft drink", "juice", "beverage", "beverages", "cocktail", "wine", "beer", "slushie", "coffee"),
	Keywords("food", 0, "food", "pizza", "meal", "snack", "snacks", "platter", "cake", "lunch", "dinner", "buffet", "chips", "nuggets", "ice cream", "popcorn"),
	Keywords("equipment", 0, "equipment", "socks", "shoes", "shoe hire", "helmet", "gear", "ball", "balls", "lane", "lanes", "table", "locker"),
	Keywords("activity", 0, "game", "games", "bowling", "laser", "arcade", "play", "jump", "climb", "climbing", "activity", "activities", "escape", "karaoke", "golf", "go kart", "trampoline", "axe throwing", "vr"),
	Keywords("service", 0, "host", "hosted", "party host", "room", "party room", "invitation", "invitations", "gift", "certificate", "photo", "staff", "dedicated"),
}

// Restrictions picks sentences that limit who/when a package applies
var Restrictions = Ruleset{
	Regexp("restriction", 0, `(?i)(minimum age|min\. age|ages? \d+\s*\+|must be|required|only available|not available|valid (on|for|mon|tue|wed|thu|fri|sat|sun)|excludes?|excluding|subject to|deposit|non[- ]refundable|cancellation|weekdays only|weekends only|school holidays|terms apply|height)`),
}

// Category tabs and "details" links on package widgets
var (
	CategoryControl = Ruleset{
		Regexp("category", 0, `(?i)(tab|filter|category|categories|segment|chip|pill)`),
	}
	DetailLink = Ruleset{
		Keywords("details", 1, "more info", "more information", "details", "view details", "see details", "learn more", "read more", "find out more", "view package", "view more"),
	}
)
